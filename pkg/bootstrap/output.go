package bootstrap

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// PrintBootstrapResult writes the bootstrap results to w
func PrintBootstrapResult(w io.Writer, result *AdminBootstrapResult) {
	if result == nil || !result.UserCreated {
		return
	}

	border := strings.Repeat("=", 80)
	fmt.Fprintf(w, "\n%s\nADMIN BOOTSTRAP COMPLETED\n%s\n", border, border)

	fmt.Fprintln(w, "\nAdmin User:")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	fmt.Fprintf(w, "  Name:      %s\n", result.Name)
	fmt.Fprintf(w, "  Email:     %s\n", result.Email)
	fmt.Fprintf(w, "  User ID:   %s\n", result.UserID)

	// Only display password if it was auto-generated
	if !result.PasswordFromEnv {
		fmt.Fprintf(w, "  Password:  %s\n", result.Password)
		fmt.Fprintln(w, "\n  THIS PASSWORD WILL NOT BE DISPLAYED AGAIN - SAVE IT NOW!")
	} else {
		fmt.Fprintln(w, "  Password:  (configured via ADMIN_PASSWORD)")
		fmt.Fprintln(w, "\n  Remove ADMIN_PASSWORD from .env after first login")
	}
	fmt.Fprintf(w, "%s\n\n", border)
}

// LogBootstrapSummary logs a concise summary without the password
func LogBootstrapSummary(result *AdminBootstrapResult) {
	if result == nil || !result.UserCreated {
		return
	}

	slog.Info("Admin bootstrap summary",
		"admin_email", result.Email,
		"user_id", result.UserID,
		"password_from_env", result.PasswordFromEnv,
	)
}
