// internal/service/referral/checker.go
package referral

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"hellofixo-service/internal/domain/referral"
	xerrors "hellofixo-service/internal/pkg/errors"
	"hellofixo-service/internal/pkg/httpx"
)

// Checker decides whether a code is redeemable for a phone number.
type Checker interface {
	Check(ctx context.Context, req CheckRequest) (*referral.CheckResponse, error)
}

type CheckRequest struct {
	Code   string
	Phone  string
	UserID string
}

// RemoteChecker calls the hosted check-referral function with the service key.
type RemoteChecker struct {
	client     *httpx.Client
	url        string
	serviceKey string
}

func NewRemoteChecker(client *httpx.Client, functionsURL, serviceKey string) *RemoteChecker {
	return &RemoteChecker{
		client:     client,
		url:        strings.TrimRight(functionsURL, "/") + "/check-referral",
		serviceKey: serviceKey,
	}
}

func (c *RemoteChecker) Check(ctx context.Context, req CheckRequest) (*referral.CheckResponse, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + c.serviceKey,
		"apikey":        c.serviceKey,
	}
	body := referral.VerifyRequest{Code: req.Code, Phone: req.Phone}

	var out referral.CheckResponse
	if err := c.client.DoJSON(ctx, http.MethodPost, c.url, headers, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CodeRepository reads referral codes from Postgres.
type CodeRepository interface {
	FindByCode(ctx context.Context, code string) (*referral.Code, error)
}

// LocalChecker validates codes against the referral_codes table.
type LocalChecker struct {
	codes CodeRepository
}

func NewLocalChecker(codes CodeRepository) *LocalChecker {
	return &LocalChecker{codes: codes}
}

func (c *LocalChecker) Check(ctx context.Context, req CheckRequest) (*referral.CheckResponse, error) {
	code, err := c.codes.FindByCode(ctx, req.Code)
	if xerrors.Is(err, xerrors.ErrNotFound) {
		return &referral.CheckResponse{Valid: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up referral code: %w", err)
	}

	switch {
	case !code.Active:
		return &referral.CheckResponse{Valid: false, Message: "This referral code is no longer active"}, nil
	case req.UserID != "" && code.OwnerID == req.UserID:
		return &referral.CheckResponse{Valid: false, Message: "You cannot use your own referral code"}, nil
	}
	return &referral.CheckResponse{Valid: true, Discount: code.Discount, Message: "Referral code applied"}, nil
}
