package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"

	"crossposter/domain/dto"
)

// Auth guards the admin API with a bearer JWT signed by SECRET_KEY. The
// token issuer becomes user_id in the request context, which scopes the
// SSE stream.
func Auth() gin.HandlerFunc {
	var res dto.Res
	res.ResponseCode = "401"
	res.ResponseMessage = "Unauthorized"

	return func(ctx *gin.Context) {
		authorization := ctx.Request.Header.Get("Authorization")
		secretKey := os.Getenv("SECRET_KEY")
		if authorization == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}
		auth := strings.Split(authorization, "Bearer ")
		if len(auth) != 2 {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}

		var claims jwt.StandardClaims
		token, err := jwt.ParseWithClaims(
			auth[1],
			&claims,
			func(token *jwt.Token) (interface{}, error) {
				return []byte(secretKey), nil
			},
		)
		if token != nil && token.Valid {
			ctx.Set("user_id", claims.Issuer)
			ctx.Next()
			return
		}

		res := res
		var ve *jwt.ValidationError
		if errors.As(err, &ve) {
			if ve.Errors&jwt.ValidationErrorMalformed != 0 {
				res.ResponseMessage = "That's not even a token"
			} else if ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0 {
				res.ResponseMessage = "Timing is everything"
			} else {
				res.ResponseMessage = fmt.Sprintf("Couldn't handle this token:%v", err)
			}
		}
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
	}
}
