// internal/service/location/postal.go
package location

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hellofixo-service/internal/domain/location"
	"hellofixo-service/internal/pkg/httpx"
)

var errNoPostOffice = errors.New("pincode has no post office")

type postOffice struct {
	Name     string `json:"Name"`
	District string `json:"District"`
	State    string `json:"State"`
}

type postalResult struct {
	Message    string       `json:"Message"`
	Status     string       `json:"Status"`
	PostOffice []postOffice `json:"PostOffice"`
}

// PostalClient looks pincodes up in the India Post directory.
type PostalClient struct {
	client  *httpx.Client
	baseURL string
}

func NewPostalClient(client *httpx.Client, baseURL string) *PostalClient {
	return &PostalClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// LookupPincode returns the first post office registered for pincode.
func (p *PostalClient) LookupPincode(ctx context.Context, pincode string) (*location.Area, error) {
	var results []postalResult
	if err := p.client.GetJSON(ctx, fmt.Sprintf("%s/pincode/%s", p.baseURL, pincode), nil, &results); err != nil {
		return nil, fmt.Errorf("failed to query postal directory: %w", err)
	}

	if len(results) == 0 || !strings.EqualFold(results[0].Status, "Success") || len(results[0].PostOffice) == 0 {
		return nil, errNoPostOffice
	}

	po := results[0].PostOffice[0]
	return &location.Area{
		Name:     po.Name,
		District: po.District,
		State:    po.State,
	}, nil
}
