// Package errors provides structured error handling with error codes for the
// account services.
//
// Every service operation returns either its payload or a *Error whose Code
// places it in one of the categories below. The HTTP layer never inspects
// messages; it renders the code's status and the message verbatim.
//
//	Kind            HTTP  Codes
//	validation      400   VALIDATION_FAILED, MISSING_REQUIRED, INVALID_FORMAT
//	authentication  401   AUTH_FAILED, INVALID_CREDENTIALS, TOKEN_INVALID, TOKEN_EXPIRED
//	authorization   403   FORBIDDEN
//	not_found       404   NOT_FOUND, USER_NOT_FOUND
//	conflict        409   CONFLICT, USER_ALREADY_EXISTS
//	rate_limited    429   RATE_LIMIT_EXCEEDED
//	internal        500   INTERNAL_ERROR and any unstructured error
//
// # Basic Usage
//
//	import "github.com/tendant/account-idm/pkg/errors"
//
//	if email == "" {
//		return errors.Validation("Email and password are required")
//	}
//
//	acct, err := repo.FindByEmail(ctx, email)
//	if err != nil {
//		return errors.InternalWrap(err, "failed to load account")
//	}
//
// In handlers:
//
//	user, err := h.service.Me(r.Context(), authUser.UserUuid)
//	if err != nil {
//		errors.RenderError(w, r, err)
//		return
//	}
//
// Internal errors are logged by RenderError and reach the client only as
// "Server error".
package errors
