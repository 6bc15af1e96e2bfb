package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"creditdesk/models"
	"creditdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const (
	userIDKey = "user_id"
	emailKey  = "email"
)

// Claims - содержимое JWT токена сотрудника
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateToken создает подписанный JWT токен
func GenerateToken(secret string, ttl time.Duration, userID, email string) (string, time.Time, error) {
	now := time.Now()
	expirationTime := now.Add(ttl)
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expirationTime, nil
}

// ParseToken проверяет подпись и срок действия токена
func ParseToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// Auth проверяет JWT токен и сохраняет пользователя в контексте запроса
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Получаем токен из заголовка
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication credentials were not provided.",
			})
			return
		}

		// Убираем префикс "Bearer " если он есть
		tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))

		claims, err := ParseToken(secret, tokenString)
		if err != nil {
			utils.LogDebug("отклонен токен: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid token",
			})
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(emailKey, claims.Email)
		c.Next()
	}
}

// GetUserFromContext получает информацию о пользователе из контекста
func GetUserFromContext(c *gin.Context) (string, string, error) {
	userID := c.GetString(userIDKey)
	if userID == "" {
		return "", "", fmt.Errorf("user_id not found in context")
	}
	return userID, c.GetString(emailKey), nil
}

// PermissionChecker проверяет право пользователя на действие с моделью
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID, action, model string) (bool, error)
}

// actionForMethod сопоставляет HTTP-метод действию над моделью
func actionForMethod(method string) (string, bool) {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return models.ActionView, true
	case http.MethodPost:
		return models.ActionAdd, true
	case http.MethodPut, http.MethodPatch:
		return models.ActionChange, true
	case http.MethodDelete:
		return models.ActionDelete, true
	}
	return "", false
}

// RequirePermission пропускает запрос, только если у пользователя есть право на действие с моделью
func RequirePermission(checker PermissionChecker, model string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, err := GetUserFromContext(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication credentials were not provided.",
			})
			return
		}

		action, ok := actionForMethod(c.Request.Method)
		if !ok {
			c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
			return
		}

		allowed, err := checker.HasPermission(c.Request.Context(), userID, action, model)
		if err != nil {
			utils.LogError("ошибка проверки прав пользователя %s: %v", userID, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "You do not have permission to perform this action.",
			})
			return
		}

		c.Next()
	}
}

type LoggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *LoggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware логирует запросы к служебному серверу
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Создаем обертку для ResponseWriter
		lrw := &LoggingResponseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		// Обрабатываем запрос
		next.ServeHTTP(lrw, r)

		utils.Logger().WithFields(logrus.Fields{
			"method":  r.Method,
			"path":    r.URL.Path,
			"status":  lrw.statusCode,
			"latency": time.Since(start).String(),
		}).Debug("ops request handled")
	})
}
