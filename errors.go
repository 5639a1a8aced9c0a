package auth

import (
	"sort"
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes attached to every error we hand to the HTTP layer
const (
	TextCodeValidation       = "VALIDATION_FAILED"
	TextCodeUserExists       = "USER_ALREADY_EXISTS"
	TextCodeUserNotFound     = "USER_NOT_FOUND"
	TextCodeNoUsers          = "NO_USERS_FOUND"
	TextCodeBadCredentials   = "INVALID_CREDENTIALS"
	TextCodeOTPMismatch      = "OTP_MISMATCH"
	TextCodePendingMissing   = "PENDING_TOKEN_MISSING"
	TextCodePendingInvalid   = "PENDING_TOKEN_INVALID"
	TextCodeSessionMissing   = "SESSION_MISSING"
	TextCodeSessionInvalid   = "SESSION_INVALID"
	TextCodeTokenExpired     = "TOKEN_EXPIRED"
	TextCodeTokenMalformed   = "TOKEN_MALFORMED"
	TextCodeRoleMissing      = "ROLE_MISSING"
	TextCodeRoleForbidden    = "ROLE_FORBIDDEN"
	TextCodeMailDelivery     = "MAIL_DELIVERY_FAILED"
	TextCodeEmptySigningKey  = "EMPTY_SIGNING_KEY"
	TextCodeRateLimited      = "RATE_LIMITED"
	TextCodeInternal         = "INTERNAL_ERROR"
	TextCodeEmptyPassword    = "EMPTY_PASSWORD"
	TextCodePasswordMismatch = "PASSWORD_MISMATCH"
)

// Messages shown to clients
const (
	MsgRegistered        = "User registered successfully. Please verify your email."
	MsgVerified          = "User verified and registered successfully."
	MsgLoggedIn          = "User logged in successfully."
	MsgLoggedOut         = "User logged out successfully."
	MsgUsersRetrieved    = "User data retrieved successfully!"
	MsgInternal          = "Internal server error."
	MsgTooManyRequests   = "Too many registration attempts, please try again later."
	msgMissingFields     = "All fields are required."
	msgUserExists        = "User already exists."
	msgUserNotFound      = "User Doesn't Exists, Try Register!"
	msgBadCredentials    = "Credentials are Incorrect!"
	msgNoUsers           = "No users found."
	msgOTPMismatch       = "Invalid OTP. Please register again!"
	msgPendingMissing    = "No token provided. Please register again!"
	msgPendingInvalid    = "Verification token is invalid or expired. Please register again!"
	msgSessionMissing    = "No token found. User is not logged in."
	msgTokenNotAvailable = "Token is not available for this request!"
	msgTokenInvalid      = "Invalid or expired token."
	msgRoleMissing       = "Unauthorized access. No role found."
	msgRoleForbidden     = "You do not have permission to access this route."
)

var (
	// ErrUserAlreadyExists is returned when email or username are taken
	ErrUserAlreadyExists = errors.New(msgUserExists, errors.CategoryConflict).
				WithCode(errors.CodeConflict).
				WithTextCode(TextCodeUserExists)

	// ErrUserNotFound login with an unknown email
	ErrUserNotFound = errors.New(msgUserNotFound, errors.CategoryNotFound).
			WithCode(errors.CodeForbidden).
			WithTextCode(TextCodeUserNotFound)

	// ErrNoUsersFound listing returned an empty result
	ErrNoUsersFound = errors.New(msgNoUsers, errors.CategoryNotFound).
			WithCode(errors.CodeNotFound).
			WithTextCode(TextCodeNoUsers)

	// ErrInvalidCredentials password did not match the stored hash
	ErrInvalidCredentials = errors.New(msgBadCredentials, errors.CategoryAuth).
				WithCode(errors.CodeConflict).
				WithTextCode(TextCodeBadCredentials)

	ErrOTPMismatch = errors.New(msgOTPMismatch, errors.CategoryValidation).
			WithCode(errors.CodeBadRequest).
			WithTextCode(TextCodeOTPMismatch)

	ErrPendingTokenMissing = errors.New(msgPendingMissing, errors.CategoryAuth).
				WithCode(errors.CodeUnauthorized).
				WithTextCode(TextCodePendingMissing)

	// ErrPendingTokenInvalid keeps the 500 status clients already handle
	ErrPendingTokenInvalid = errors.New(msgPendingInvalid, errors.CategoryAuth).
				WithCode(errors.CodeInternal).
				WithTextCode(TextCodePendingInvalid)

	ErrSessionMissing = errors.New(msgSessionMissing, errors.CategoryAuth).
				WithCode(errors.CodeUnauthorized).
				WithTextCode(TextCodeSessionMissing)

	// ErrTokenNotAvailable the gate found no cookie
	ErrTokenNotAvailable = errors.New(msgTokenNotAvailable, errors.CategoryAuth).
				WithCode(errors.CodeUnauthorized).
				WithTextCode(TextCodeSessionMissing)

	// ErrSessionInvalid the gate found a cookie it could not trust
	ErrSessionInvalid = errors.New(msgTokenInvalid, errors.CategoryAuth).
				WithCode(errors.CodeForbidden).
				WithTextCode(TextCodeSessionInvalid)

	ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
			WithCode(errors.CodeUnauthorized).
			WithTextCode(TextCodeTokenExpired)

	ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
				WithCode(errors.CodeUnauthorized).
				WithTextCode(TextCodeTokenMalformed)

	ErrRoleMissing = errors.New(msgRoleMissing, errors.CategoryAuthz).
			WithCode(errors.CodeUnauthorized).
			WithTextCode(TextCodeRoleMissing)

	ErrRoleForbidden = errors.New(msgRoleForbidden, errors.CategoryAuthz).
				WithCode(errors.CodeForbidden).
				WithTextCode(TextCodeRoleForbidden)

	ErrEmptySigningKey = errors.New("signing key must not be empty", errors.CategoryInternal).
				WithCode(errors.CodeInternal).
				WithTextCode(TextCodeEmptySigningKey)

	ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
				WithCode(errors.CodeBadRequest).
				WithTextCode(TextCodeEmptyPassword)

	ErrMismatchedHashAndPassword = errors.New("password does not match hash", errors.CategoryAuth).
					WithCode(errors.CodeConflict).
					WithTextCode(TextCodePasswordMismatch)
)

// HasTextCode reports whether any go-errors value in the chain carries code.
// Sentinels are cloned before being returned so pointer identity is not
// reliable across package boundaries.
func HasTextCode(err error, code string) bool {
	for err != nil {
		var richErr *errors.Error
		if !errors.As(err, &richErr) {
			return false
		}
		if richErr.TextCode == code {
			return true
		}
		err = richErr.Source
	}
	return false
}

// ErrorStatus resolves the HTTP status for err
func ErrorStatus(err error) int {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return errors.CodeInternal
	}

	if richErr.Code != 0 {
		return richErr.Code
	}

	switch richErr.Category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return errors.CodeBadRequest
	case errors.CategoryConflict:
		return errors.CodeConflict
	case errors.CategoryNotFound:
		return errors.CodeNotFound
	case errors.CategoryAuth:
		return errors.CodeUnauthorized
	case errors.CategoryAuthz:
		return errors.CodeForbidden
	case errors.CategoryRateLimit:
		return errors.CodeTooManyRequests
	default:
		return errors.CodeInternal
	}
}

// ErrorMessage is the client facing message for err. Anything that resolves
// to a 5xx, other than the explicit pending token failure, is masked.
func ErrorMessage(err error) string {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return MsgInternal
	}

	status := ErrorStatus(err)
	if status >= 500 && richErr.TextCode != TextCodePendingInvalid {
		return MsgInternal
	}

	if len(richErr.ValidationErrors) > 0 {
		fields := make([]string, 0, len(richErr.ValidationErrors))
		for _, fe := range richErr.ValidationErrors {
			fields = append(fields, fe.Field+": "+fe.Message)
		}
		sort.Strings(fields)
		return richErr.Message + " " + strings.Join(fields, "; ")
	}

	return richErr.Message
}

// describeError flattens a chain of errors for server side logs
func describeError(err error) string {
	parts := []string{}
	for err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			parts = append(parts, string(richErr.Category)+": "+richErr.Message)
			err = richErr.Source
			continue
		}
		parts = append(parts, err.Error())
		break
	}
	return strings.Join(parts, " <- ")
}
