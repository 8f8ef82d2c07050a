package middleware

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/medoraai/clinic-backend/internal/model"
	"github.com/medoraai/clinic-backend/internal/repository"
	"github.com/medoraai/clinic-backend/internal/utils"
)

// fakeResolver serves accounts from a map and resolves staff links the
// same way the repository does.
type fakeResolver struct{ users map[uint64]model.User }

func (f *fakeResolver) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeResolver) EffectiveSubscriptionOwner(ctx context.Context, u model.User) (model.User, error) {
	ownerID := u.SubscriptionOwnerID()
	if ownerID == u.ID {
		return u, nil
	}
	owner, err := f.GetByID(ctx, ownerID)
	if err != nil {
		return u, nil
	}
	return owner, nil
}

func subscriptionFixture() *fakeResolver {
	future := time.Now().Add(24 * time.Hour)
	docID := uint64(1)
	return &fakeResolver{users: map[uint64]model.User{
		1: {ID: 1, Role: model.RoleDoctor, SubscriptionStatus: model.SubscriptionActive, SubscriptionExpiry: &future},
		2: {ID: 2, Role: model.RoleDoctor, SubscriptionStatus: model.SubscriptionInactive},
		3: {ID: 3, Role: model.RoleStaff, LinkedDoctorID: &docID},
		4: {ID: 4, Role: model.RoleStaff},
	}}
}

func bearerFor(t *testing.T, userID uint64, role string) string {
	t.Helper()
	pair, err := utils.NewTokenPair(testSecret, userID, role, 15, 7)
	if err != nil {
		t.Fatalf("NewTokenPair: %v", err)
	}
	return "Bearer " + pair.Access
}

func TestRequireActiveSubscriptionAllowsActiveOwner(t *testing.T) {
	resolver := subscriptionFixture()
	rec, c := callProtected(t, bearerFor(t, 1, "doctor"),
		JWTAuth(testSecret), RequireActiveSubscription(resolver))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	owner, _ := c.Get("subscription_owner").(model.User)
	if owner.ID != 1 {
		t.Fatalf("subscription_owner = %+v, want account 1", owner)
	}
}

func TestRequireActiveSubscriptionBlocksLapsedOwner(t *testing.T) {
	resolver := subscriptionFixture()
	rec, _ := callProtected(t, bearerFor(t, 2, "doctor"),
		JWTAuth(testSecret), RequireActiveSubscription(resolver))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestRequireActiveSubscriptionStaffInheritsLink(t *testing.T) {
	resolver := subscriptionFixture()
	rec, c := callProtected(t, bearerFor(t, 3, "staff"),
		JWTAuth(testSecret), RequireActiveSubscription(resolver))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 via linked doctor", rec.Code)
	}
	owner, _ := c.Get("subscription_owner").(model.User)
	if owner.ID != 1 {
		t.Fatalf("subscription_owner = %+v, want linked doctor", owner)
	}
}

func TestRequireActiveSubscriptionUnlinkedStaffBlocked(t *testing.T) {
	resolver := subscriptionFixture()
	rec, _ := callProtected(t, bearerFor(t, 4, "staff"),
		JWTAuth(testSecret), RequireActiveSubscription(resolver))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 for unlinked staff", rec.Code)
	}
}

func TestRequireActiveSubscriptionDeletedAccount(t *testing.T) {
	resolver := subscriptionFixture()
	rec, _ := callProtected(t, bearerFor(t, 99, "doctor"),
		JWTAuth(testSecret), RequireActiveSubscription(resolver))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 for deleted account", rec.Code)
	}
}
