package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fundra.org/internal/audit"
	"fundra.org/internal/auth"
	"fundra.org/internal/portal"
	"fundra.org/internal/stream"
)

// handleInternResource dispatches /api/intern/{id} and its sub-resources.
func (a *API) handleInternResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/intern/")
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	id := path
	sub := ""
	if i := strings.IndexByte(path, '/'); i >= 0 {
		id, sub = path[:i], path[i+1:]
	}
	if id == "" || strings.Contains(sub, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch sub {
	case "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.getIntern(w, r, id)
	case "stats":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.getStats(w, r, id)
	case "referrals":
		switch r.Method {
		case http.MethodGet:
			a.listReferrals(w, r, id)
		case http.MethodPost:
			a.createReferral(w, r, id)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		}
	case "donations":
		switch r.Method {
		case http.MethodGet:
			a.listDonations(w, r, id)
		case http.MethodPost:
			a.createDonation(w, r, id)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		}
	case "rewards":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.getInternRewards(w, r, id)
	case "activities":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.listActivities(w, r, id)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) getIntern(w http.ResponseWriter, r *http.Request, id string) {
	intern, err := a.portal.GetIntern(r.Context(), id)
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, intern)
}

func (a *API) getStats(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	intern, err := a.portal.GetIntern(ctx, id)
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	referrals, err := a.portal.ListReferrals(ctx, id)
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	donations, err := a.portal.ListDonations(ctx, id)
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	unlocks, err := a.portal.ListInternRewards(ctx, id)
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, portal.ComputeStats(intern, referrals, donations, unlocks))
}

func (a *API) listReferrals(w http.ResponseWriter, r *http.Request, id string) {
	referrals, err := a.portal.ListReferrals(r.Context(), id)
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	if referrals == nil {
		referrals = []portal.Referral{}
	}
	writeJSON(w, http.StatusOK, referrals)
}

func (a *API) createReferral(w http.ResponseWriter, r *http.Request, id string) {
	var req portal.NewReferral
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request data")
		return
	}
	req.ReferredEmail = strings.TrimSpace(req.ReferredEmail)
	req.ReferredName = strings.TrimSpace(req.ReferredName)
	if req.ReferredEmail == "" || req.ReferredName == "" {
		writeError(w, r, http.StatusBadRequest, "Invalid request data")
		return
	}

	referral, err := a.portal.CreateReferral(r.Context(), id, req)
	if err != nil {
		handlePortalError(w, r, err)
		return
	}

	if _, err := a.portal.CreateActivity(r.Context(), id, portal.NewActivity{
		Type:        portal.ActivityReferral,
		Description: "New referral signup: " + req.ReferredName,
	}); err != nil {
		handlePortalError(w, r, err)
		return
	}

	a.auditPortal(r, id, "portal.referral.create", map[string]any{
		"referral_id":    referral.ID,
		"referred_email": referral.ReferredEmail,
	})

	writeJSON(w, http.StatusCreated, referral)
}

func (a *API) listDonations(w http.ResponseWriter, r *http.Request, id string) {
	donations, err := a.portal.ListDonations(r.Context(), id)
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	if donations == nil {
		donations = []portal.Donation{}
	}
	writeJSON(w, http.StatusOK, donations)
}

func (a *API) createDonation(w http.ResponseWriter, r *http.Request, id string) {
	var req portal.NewDonation
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request data")
		return
	}
	req.Source = strings.TrimSpace(req.Source)
	if req.Amount <= 0 || req.Source == "" {
		writeError(w, r, http.StatusBadRequest, "Invalid request data")
		return
	}

	donation, err := a.portal.CreateDonation(r.Context(), id, req)
	if err != nil {
		handlePortalError(w, r, err)
		return
	}

	amount := donation.Amount
	if _, err := a.portal.CreateActivity(r.Context(), id, portal.NewActivity{
		Type:        portal.ActivityDonation,
		Description: "New donation received",
		Amount:      &amount,
	}); err != nil {
		handlePortalError(w, r, err)
		return
	}

	if a.feed != nil {
		intern, err := a.portal.GetIntern(r.Context(), id)
		if err == nil {
			a.feed.Publish(stream.DonationEvent{
				InternID:   intern.ID,
				InternName: intern.FirstName + " " + intern.LastName,
				Amount:     donation.Amount,
				Source:     donation.Source,
				Timestamp:  time.Now().UTC(),
			})
		}
	}

	a.auditPortal(r, id, "portal.donation.create", map[string]any{
		"donation_id": donation.ID,
		"amount":      strconv.FormatInt(donation.Amount, 10),
		"source":      donation.Source,
	})

	writeJSON(w, http.StatusCreated, donation)
}

func (a *API) handleRewardCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	rewards, err := a.portal.ListRewards(r.Context())
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rewards)
}

func (a *API) getInternRewards(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	intern, err := a.portal.GetIntern(ctx, id)
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	catalog, err := a.portal.ListRewards(ctx)
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	unlocks, err := a.portal.ListInternRewards(ctx, id)
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, portal.RewardStatuses(intern, catalog, unlocks))
}

func (a *API) listActivities(w http.ResponseWriter, r *http.Request, id string) {
	limit := parseLimit(r.URL.Query().Get("limit"), portal.DefaultActivityLimit, 100)
	activities, err := a.portal.ListRecentActivities(r.Context(), id, limit)
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	if activities == nil {
		activities = []portal.Activity{}
	}
	writeJSON(w, http.StatusOK, activities)
}

func (a *API) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	interns, err := a.portal.ListInterns(r.Context())
	if err != nil {
		handlePortalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, portal.Leaderboard(interns))
}

func (a *API) auditPortal(r *http.Request, internID, event string, fields map[string]any) {
	ctx := auth.ContextWithIntern(r.Context(), internID)
	_ = audit.LogEvent(ctx, event, fields)
}

// parseLimit mirrors the feed's lenient limit handling: anything that is not
// a positive integer falls back to the default.
func parseLimit(raw string, def, max int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return def
	}
	if val > max {
		return max
	}
	return val
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func handlePortalError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, portal.ErrInvalidAmount),
		errors.Is(err, portal.ErrInvalidInput),
		errors.Is(err, portal.ErrUnknownActivity):
		writeError(w, r, http.StatusBadRequest, "Invalid request data")
	case errors.Is(err, portal.ErrEmailTaken):
		writeError(w, r, http.StatusBadRequest, "Email already registered")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, portal.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "Intern not found")
	case errors.Is(err, portal.ErrUnknownReward):
		writeError(w, r, http.StatusNotFound, "Reward not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"message": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
