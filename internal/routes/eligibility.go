package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/doodleleagues/whitelist_checker/internal/eligibility"
	"github.com/doodleleagues/whitelist_checker/internal/middleware"
	"github.com/doodleleagues/whitelist_checker/internal/session"
)

// EligibilityHandler exposes the visitor's eligibility controller over HTTP.
type EligibilityHandler struct {
	sessions *session.Manager
}

// NewEligibilityHandler builds the eligibility HTTP handler.
func NewEligibilityHandler(sessions *session.Manager) *EligibilityHandler {
	return &EligibilityHandler{sessions: sessions}
}

type checkRequest struct {
	Input string `json:"input" validate:"max=256"`
}

type walletRequest struct {
	Wallet string `json:"wallet" validate:"max=256"`
}

type outcomeResponse struct {
	SessionID      string              `json:"session_id"`
	Outcome        eligibility.Outcome `json:"outcome"`
	AwaitingWallet bool                `json:"awaiting_wallet"`
}

// RegisterEligibilityRoutes wires the check, wallet and outcome endpoints.
func RegisterEligibilityRoutes(r fiber.Router, h *EligibilityHandler, checkLimiter, walletIdempotency fiber.Handler) {
	r.Post("/check", checkLimiter, h.Check)
	r.Post("/wallet", walletIdempotency, h.SubmitWallet)
	r.Get("/outcome", h.Outcome)
}

// Check runs an eligibility check for the submitted identifier.
func (h *EligibilityHandler) Check(c *fiber.Ctx) error {
	var req checkRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	ctrl := h.sessions.Get(c.UserContext(), middleware.GetSessionID(c))
	out := ctrl.CheckEligibility(c.UserContext(), req.Input)
	return h.respond(c, ctrl, out)
}

// SubmitWallet links a wallet to the username remembered by the session.
func (h *EligibilityHandler) SubmitWallet(c *fiber.Ctx) error {
	var req walletRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	ctrl := h.sessions.Get(c.UserContext(), middleware.GetSessionID(c))
	out := ctrl.SubmitWallet(c.UserContext(), req.Wallet)
	return h.respond(c, ctrl, out)
}

// Outcome returns the session's current outcome.
func (h *EligibilityHandler) Outcome(c *fiber.Ctx) error {
	ctrl := h.sessions.Get(c.UserContext(), middleware.GetSessionID(c))
	return h.respond(c, ctrl, ctrl.Outcome())
}

func (h *EligibilityHandler) respond(c *fiber.Ctx, ctrl *eligibility.Controller, out eligibility.Outcome) error {
	return c.Status(http.StatusOK).JSON(outcomeResponse{
		SessionID:      middleware.GetSessionID(c),
		Outcome:        out,
		AwaitingWallet: ctrl.AwaitingWallet(),
	})
}
