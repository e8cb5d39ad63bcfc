package echoapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/padhaidunia/padhaidunia/core"
	"github.com/padhaidunia/padhaidunia/core/user"
)

const (
	signatureHeader = "X-Webhook-Signature"
	signaturePrefix = "sha256="

	eventUserCreated = "user.created"
	eventUserUpdated = "user.updated"
	eventUserDeleted = "user.deleted"
)

// WebhookEvent is a user lifecycle event pushed by the identity provider.
type WebhookEvent struct {
	Type string      `json:"type"`
	Data WebhookUser `json:"data"`
}

type WebhookUser struct {
	ID                    string `json:"id"`
	FirstName             string `json:"first_name"`
	LastName              string `json:"last_name"`
	Username              string `json:"username"`
	ImageURL              string `json:"image_url"`
	PrimaryEmailAddressID string `json:"primary_email_address_id"`
	EmailAddresses        []struct {
		ID           string `json:"id"`
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
	PublicMetadata struct {
		Role string `json:"role"`
	} `json:"public_metadata"`
}

func (wu WebhookUser) primaryEmail() string {
	for _, addr := range wu.EmailAddresses {
		if addr.ID == wu.PrimaryEmailAddressID {
			return addr.EmailAddress
		}
	}
	if len(wu.EmailAddresses) > 0 {
		return wu.EmailAddresses[0].EmailAddress
	}
	return ""
}

func (wu WebhookUser) newUser() user.NewUser {
	return user.NewUser{
		ID:       wu.ID,
		Name:     strings.TrimSpace(wu.FirstName + " " + wu.LastName),
		Username: wu.Username,
		Email:    wu.primaryEmail(),
		Role:     wu.PublicMetadata.Role,
		ImageURL: wu.ImageURL,
	}
}

type webhookApi struct {
	secret string
	svc    user.Service
	logger core.Logger
}

func registerWebhookAPI(g *echo.Group, conf *core.Config, svc user.Service, logger core.Logger) {
	api := webhookApi{secret: conf.WebhookSecret, svc: svc, logger: logger}
	g.POST("/webhooks/users", api.handleUserEvent)
}

// Handlers

func (api *webhookApi) handleUserEvent(ctx echo.Context) error {
	body, err := ioutil.ReadAll(ctx.Request().Body)
	if err != nil {
		return errors.Wrap(err, "reading webhook body")
	}
	if !validSignature(api.secret, ctx.Request().Header.Get(signatureHeader), body) {
		return errInvalidSignature
	}

	var evt WebhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if evt.Data.ID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing user id")
	}

	reqCtx := ctx.Request().Context()
	switch evt.Type {
	case eventUserCreated, eventUserUpdated:
		usr, created, err := api.svc.Sync(reqCtx, evt.Data.newUser())
		if err != nil {
			return errors.Wrap(err, "syncing user")
		}
		api.logger.Info("user synced", map[string]interface{}{"event": evt.Type, "created": created}, usr)
	case eventUserDeleted:
		if err := api.svc.Delete(reqCtx, evt.Data.ID); err != nil {
			return errors.Wrap(err, "deleting user")
		}
		api.logger.Info("user deleted", map[string]interface{}{"event": evt.Type, "user_id": evt.Data.ID})
	default:
		api.logger.Debug("ignoring webhook event", map[string]interface{}{"event": evt.Type})
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true})
}

// validSignature checks header against the hex HMAC-SHA256 of body. An empty secret rejects everything.
func validSignature(secret, header string, body []byte) bool {
	if secret == "" || !strings.HasPrefix(header, signaturePrefix) {
		return false
	}
	got, err := hex.DecodeString(strings.TrimPrefix(header, signaturePrefix))
	if err != nil {
		return false
	}
	return hmac.Equal(got, Sign(secret, body))
}

// Sign returns the HMAC-SHA256 of body keyed with secret.
func Sign(secret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

// SignatureHeader returns the signature header value of body.
func SignatureHeader(secret string, body []byte) string {
	return signaturePrefix + hex.EncodeToString(Sign(secret, body))
}
