package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/padhaidunia/padhaidunia/core"
	"github.com/padhaidunia/padhaidunia/core/user"
)

const (
	tokenContextKey  = "userToken"
	viewerContextKey = "viewer"

	tokenLifetime = time.Hour
)

// Claims represents the authorization claims of a session token issued by the identity provider.
type Claims struct {
	jwt.StandardClaims
	Name     string        `json:"name,omitempty"`
	Email    string        `json:"email,omitempty"`
	Metadata ClaimMetadata `json:"metadata"`
}

type ClaimMetadata struct {
	Role string `json:"role,omitempty"`
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

// GetUserClaims returns the claims the identity provider would issue for usr.
func GetUserClaims(usr user.User, conf *core.Config) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.Server.JWTIssuer,
			Subject:   usr.ID,
			Audience:  conf.Server.JWTAudience,
			ExpiresAt: now.Add(tokenLifetime).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:     usr.Name,
		Email:    usr.Email,
		Metadata: ClaimMetadata{Role: usr.Role},
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(claims *Claims, secretKey string) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (*Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok && claims.Subject != "" {
			return claims, nil
		}
	}
	return nil, errUnauthorized
}

// viewerMiddleware turns the verified token into a user.Viewer.
// The role comes from the token metadata; tokens without one fall back to the stored user.
func viewerMiddleware(conf *core.Config, svc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if iss := conf.Server.JWTIssuer; iss != "" && !claims.VerifyIssuer(iss, true) {
				return errUnauthorized
			}
			if aud := conf.Server.JWTAudience; aud != "" && !claims.VerifyAudience(aud, true) {
				return errUnauthorized
			}

			viewer := user.Viewer{ID: claims.Subject, Role: claims.Metadata.Role}
			if !user.IsValidRole(viewer.Role) {
				usr, err := svc.GetByID(ctx.Request().Context(), viewer.ID)
				if err != nil {
					if errors.Cause(err) == user.ErrNotFound {
						return errUnauthorized
					}
					return errors.Wrap(err, "finding user by ID")
				}
				if !usr.Active() {
					return errAccountDeactivated
				}
				viewer.Role = usr.Role
			}

			ctx.Set(viewerContextKey, viewer)
			return next(ctx)
		}
	}
}

func getViewer(ctx echo.Context) (user.Viewer, error) {
	if viewer, ok := ctx.Get(viewerContextKey).(user.Viewer); ok {
		return viewer, nil
	}
	return user.Viewer{}, errUnauthorized
}
