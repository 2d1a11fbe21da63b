package middlew

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"gw-bank-transfer/internal/custom_err"
	"gw-bank-transfer/internal/models"
	"gw-bank-transfer/internal/service"
	"gw-bank-transfer/pkg/response"

	"github.com/google/uuid"
)

func RequireAuth(authService service.Auth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := GetLogger(r.Context())

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.WriteJSONError(w, log, http.StatusUnauthorized, "unauthorized", "Authorization header is required")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				log.Warn("invalid authorization header format")
				response.WriteJSONError(w, log, http.StatusUnauthorized, "unauthorized", "Invalid authorization header format")
				return
			}

			claims, err := authService.ValidateToken(parts[1])
			if err != nil {
				switch {
				case errors.Is(err, custom_err.ErrTokenExpired):
					response.WriteJSONError(w, log, http.StatusUnauthorized, "token_expired", "Token has expired")
				case errors.Is(err, custom_err.ErrTokenNotActive):
					response.WriteJSONError(w, log, http.StatusUnauthorized, "token_not_active", "Token not yet active")
				case errors.Is(err, custom_err.ErrInvalidToken):
					response.WriteJSONError(w, log, http.StatusUnauthorized, "invalid_token", "Invalid token")
				default:
					log.Error("failed to validate token", slog.String("error", err.Error()))
					response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Internal error")
				}
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, customerIDKey, claims.CustomerID)
			ctx = context.WithValue(ctx, roleKey, claims.Role)

			loggerWithCustomer := log.With(slog.String("customer_id", claims.CustomerID.String()))
			ctx = context.WithValue(ctx, loggerKey, loggerWithCustomer)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin пропускает только токены с ролью admin; ставится после RequireAuth
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, _ := r.Context().Value(roleKey).(string)
		if role != models.RoleAdmin {
			log := GetLogger(r.Context())
			log.Warn("попытка доступа к административному маршруту без прав")
			response.WriteJSONError(w, log, http.StatusForbidden, "forbidden", "Administrator role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetCustomerID(ctx context.Context) uuid.UUID {
	customerID, ok := ctx.Value(customerIDKey).(uuid.UUID)
	if !ok {
		panic("customerID not found in context - RequireAuth middleware not applied?")
	}
	return customerID
}
