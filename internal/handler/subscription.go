package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medoraai/clinic-backend/internal/model"
	"github.com/medoraai/clinic-backend/internal/queue"
	"github.com/medoraai/clinic-backend/internal/repository"
	"github.com/medoraai/clinic-backend/internal/service"
)

// maxReceiptSize bounds the uploaded receipt image.
const maxReceiptSize = 5 << 20

// SubscriptionHandler serves plan listings, the caller's subscription
// state and payment receipt submission.
type SubscriptionHandler struct {
	Users    *repository.UserRepo
	Plans    *repository.PlanRepo
	Payments *repository.PaymentRepo
	Usage    *service.UsageTracker
	Log      zerolog.Logger
}

func NewSubscriptionHandler(users *repository.UserRepo, plans *repository.PlanRepo,
	payments *repository.PaymentRepo, usage *service.UsageTracker, log zerolog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{Users: users, Plans: plans, Payments: payments, Usage: usage, Log: log}
}

type planPayload struct {
	ID                  uint64 `json:"id"`
	Name                string `json:"name"`
	Slug                string `json:"slug"`
	PlanType            string `json:"plan_type"`
	Description         string `json:"description"`
	PriceMonthly        int64  `json:"price_monthly"`
	PriceCurrency       string `json:"price_currency"`
	DurationDays        int    `json:"duration_days"`
	IsTrial             bool   `json:"is_trial"`
	TrialDays           int    `json:"trial_days"`
	MaxAnalysesPerMonth *int   `json:"max_analyses_per_month"`
}

func toPlanPayload(p model.SubscriptionPlan) planPayload {
	return planPayload{
		ID:                  p.ID,
		Name:                p.Name,
		Slug:                p.Slug,
		PlanType:            p.PlanType,
		Description:         p.Description,
		PriceMonthly:        p.PriceMonthly,
		PriceCurrency:       p.PriceCurrency,
		DurationDays:        p.DurationDays,
		IsTrial:             p.IsTrial,
		TrialDays:           p.TrialDays,
		MaxAnalysesPerMonth: p.MaxAnalysesPerMonth,
	}
}

// ListPlans handles GET /v1/plans. Public; the router wraps it in the
// Redis response cache since plans change rarely.
func (h *SubscriptionHandler) ListPlans(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	plans, err := h.Plans.ListActive(ctx)
	if err != nil {
		h.Log.Error().Err(err).Msg("plan list failed")
		return respondError(c, http.StatusInternalServerError, "could not load plans")
	}
	out := make([]planPayload, 0, len(plans))
	for _, p := range plans {
		out = append(out, toPlanPayload(p))
	}
	return respondOK(c, http.StatusOK, out)
}

// MySubscription handles GET /v1/subscription. It reports the resolved
// owner's state so staff see the subscription they actually run under,
// plus the remaining analyses for the current month.
func (h *SubscriptionHandler) MySubscription(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "missing bearer token")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return respondError(c, http.StatusUnauthorized, "account no longer exists")
	}
	owner, err := h.Users.EffectiveSubscriptionOwner(ctx, u)
	if err != nil {
		h.Log.Error().Err(err).Uint64("user_id", uid).Msg("subscription owner lookup failed")
		return respondError(c, http.StatusInternalServerError, "could not load subscription")
	}

	now := time.Now().UTC()
	data := echo.Map{
		"active":              owner.HasActiveSubscription(now),
		"status":              owner.SubscriptionStatus,
		"subscription_expiry": owner.SubscriptionExpiry,
		"trial_ends_at":       owner.TrialEndsAt,
		"inherited":           owner.ID != u.ID,
	}
	if owner.PlanID != nil {
		if plan, err := h.Plans.GetActive(ctx, *owner.PlanID); err == nil {
			data["plan"] = toPlanPayload(plan)
			_, remaining := h.Usage.CheckLimit(ctx, owner.ID, &plan, now)
			data["analyses_remaining"] = remaining
		}
	}
	return respondOK(c, http.StatusOK, data)
}

// SubmitReceipt handles POST /v1/subscription/receipt (multipart). The
// payment lands in the pending state, the account flips to pending, and
// the receipt is forwarded to the admin group through the queue. A
// broker outage never fails the submission.
func (h *SubscriptionHandler) SubmitReceipt(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "missing bearer token")
	}

	planID, err := strconv.ParseUint(c.FormValue("plan_id"), 10, 64)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "plan_id is required")
	}
	note := c.FormValue("note")

	receipt, msg := readReceipt(c)
	if msg != "" {
		return respondError(c, http.StatusBadRequest, msg)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return respondError(c, http.StatusUnauthorized, "account no longer exists")
	}
	plan, err := h.Plans.GetActive(ctx, planID)
	if errors.Is(err, repository.ErrNotFound) {
		return respondError(c, http.StatusBadRequest, "unknown plan")
	}
	if err != nil {
		h.Log.Error().Err(err).Msg("plan lookup failed")
		return respondError(c, http.StatusInternalServerError, "could not submit receipt")
	}

	paymentID, err := h.Payments.Create(ctx, model.SubscriptionPayment{
		UserID:      uid,
		PlanID:      &plan.ID,
		Amount:      plan.PriceMonthly,
		Status:      model.PaymentPending,
		ReceiptNote: note,
	})
	if err != nil {
		h.Log.Error().Err(err).Uint64("user_id", uid).Msg("payment create failed")
		return respondError(c, http.StatusInternalServerError, "could not submit receipt")
	}
	if err := h.Users.SetSubscriptionStatus(ctx, uid, model.SubscriptionPending); err != nil {
		h.Log.Warn().Err(err).Uint64("user_id", uid).Msg("could not mark subscription pending")
	}

	// Best effort: the admin group is notified asynchronously and the
	// pending payment row is the source of truth either way.
	_ = service.PublishPaymentReceived(ctx, queue.PaymentReceivedEvent{
		PaymentID:    paymentID,
		UserID:       uid,
		UserName:     u.Name,
		UserPhone:    u.Phone,
		UserRole:     string(u.Role),
		PlanName:     plan.Name,
		Amount:       plan.PriceMonthly,
		ReceiptNote:  note,
		SubmittedAt:  time.Now().UTC().Format(time.RFC3339),
		ReceiptImage: receipt.data,
		ReceiptName:  receipt.name,
		ReceiptMIME:  receipt.mime,
	})

	return respondOK(c, http.StatusCreated, echo.Map{
		"payment_id": paymentID,
		"status":     model.PaymentPending,
	})
}

type receiptUpload struct {
	data []byte
	name string
	mime string
}

// readReceipt extracts and validates the uploaded receipt image. The
// returned message is empty on success and a user-facing 400 reason
// otherwise. Size is checked against the actual bytes read, not just
// the multipart header.
func readReceipt(c echo.Context) (receiptUpload, string) {
	file, err := c.FormFile("receipt")
	if err != nil {
		return receiptUpload{}, "receipt image is required"
	}
	if file.Size > maxReceiptSize {
		return receiptUpload{}, "receipt image must be at most 5MB"
	}
	ctype := file.Header.Get("Content-Type")
	if !strings.HasPrefix(ctype, "image/jpeg") && !strings.HasPrefix(ctype, "image/png") {
		return receiptUpload{}, "receipt must be a JPEG or PNG image"
	}

	src, err := file.Open()
	if err != nil {
		return receiptUpload{}, "could not read receipt image"
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxReceiptSize+1))
	if err != nil {
		return receiptUpload{}, "could not read receipt image"
	}
	if len(data) > maxReceiptSize {
		return receiptUpload{}, "receipt image must be at most 5MB"
	}
	return receiptUpload{data: data, name: file.Filename, mime: ctype}, ""
}

// PaymentHistory handles GET /v1/subscription/payments.
func (h *SubscriptionHandler) PaymentHistory(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, "missing bearer token")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	payments, err := h.Payments.ListByUser(ctx, uid)
	if err != nil {
		h.Log.Error().Err(err).Uint64("user_id", uid).Msg("payment history failed")
		return respondError(c, http.StatusInternalServerError, "could not load payment history")
	}
	type paymentPayload struct {
		ID        uint64    `json:"id"`
		PlanID    *uint64   `json:"plan_id"`
		Amount    int64     `json:"amount"`
		Status    string    `json:"status"`
		Note      string    `json:"note,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}
	out := make([]paymentPayload, 0, len(payments))
	for _, p := range payments {
		out = append(out, paymentPayload{
			ID: p.ID, PlanID: p.PlanID, Amount: p.Amount,
			Status: p.Status, Note: p.ReceiptNote, CreatedAt: p.CreatedAt,
		})
	}
	return respondOK(c, http.StatusOK, out)
}
