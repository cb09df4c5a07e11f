package auth

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"defense_queue/internal/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ActorKey — ключ gin.Context, под которым лежит id вызывающего.
const ActorKey = "actorID"

// Actor возвращает id вызывающего, установленный middleware.
func Actor(c *gin.Context) string {
	return c.GetString(ActorKey)
}

// AuthMiddleware проверяет access токен, выпущенный сервисом идентификации,
// и кладёт его user_id (или sub) в контекст как непрозрачную строку.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{
				Code:    "NO_AUTH_HEADER",
				Message: "Требуется авторизация",
			})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{
				Code:    "INVALID_TOKEN",
				Message: "Неверный или просроченный токен",
			})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{
				Code:    "INVALID_TOKEN_CLAIMS",
				Message: "Невозможно прочитать claims токена",
			})
			return
		}

		actorID := subject(claims)
		if actorID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{
				Code:    "INVALID_USER_ID",
				Message: "Невозможно извлечь user_id",
			})
			return
		}

		c.Set(ActorKey, actorID)
		c.Next()
	}
}

// subject достаёт id из user_id (число или строка) либо из sub.
func subject(claims jwt.MapClaims) string {
	switch v := claims["user_id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	}
	if sub, err := claims.GetSubject(); err == nil {
		return sub
	}
	return ""
}

// GenerateToken выпускает access токен в формате, который понимает AuthMiddleware.
func GenerateToken(userID string, duration time.Duration, secret []byte) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("empty user id")
	}
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(duration).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
