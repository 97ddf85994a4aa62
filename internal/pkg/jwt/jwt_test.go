package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewService("test-secret", 15*time.Minute)
	userID := uuid.New()

	token, err := svc.GenerateAccessToken(userID, RoleCustomer, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("user_id = %s, want %s", claims.UserID, userID)
	}
	if claims.Role != RoleCustomer {
		t.Errorf("role = %q, want %q", claims.Role, RoleCustomer)
	}
	if claims.ShopID != nil {
		t.Errorf("shop_id = %v, want nil for a customer token", claims.ShopID)
	}
}

func TestShopTokenCarriesShopID(t *testing.T) {
	svc := NewService("test-secret", 15*time.Minute)
	userID := uuid.New()
	shopID := uuid.New()

	token, err := svc.GenerateAccessToken(userID, RoleShop, &shopID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.ShopID == nil || *claims.ShopID != shopID {
		t.Errorf("shop_id = %v, want %s", claims.ShopID, shopID)
	}
}

func TestValidateWrongSecret(t *testing.T) {
	svc := NewService("test-secret", 15*time.Minute)
	other := NewService("another-secret", 15*time.Minute)

	token, err := svc.GenerateAccessToken(uuid.New(), RoleAdmin, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := other.ValidateAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	svc := NewService("test-secret", -1*time.Minute)

	token, err := svc.GenerateAccessToken(uuid.New(), RoleCustomer, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := svc.ValidateAccessToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("err = %v, want ErrExpiredToken", err)
	}
}
