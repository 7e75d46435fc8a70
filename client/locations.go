package client

import (
	"context"
	"encoding/json"
	"fmt"
)

// Address is the postal address of a location.
type Address struct {
	City    string `json:"city"`
	Country string `json:"country"`
	State   string `json:"state"`
	Street  string `json:"street"`
	Number  string `json:"number"`
	Zip     string `json:"zip"`
}

// Location is one lock installation known to the nello API.
type Location struct {
	LocationID string  `json:"location_id"`
	Address    Address `json:"address"`
}

// Locations lists all lock installations the credential has access to.
func (c *nelloClient) Locations(ctx context.Context) ([]Location, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}

	env, err := checkEnvelope(c.api.DoGET(ctx, c.url("locations")))
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}

	var locations []Location
	if err := json.Unmarshal(env.Data, &locations); err != nil {
		return nil, fmt.Errorf("failed to decode locations: %w", err)
	}
	return locations, nil
}

// OpenDoor opens the door of a location.
func (c *nelloClient) OpenDoor(ctx context.Context, locationID string) error {
	if err := c.requireToken(); err != nil {
		return err
	}

	if _, err := checkEnvelope(c.api.DoPUT(ctx, c.url("locations", locationID, "open"), nil)); err != nil {
		return fmt.Errorf("failed to open door at %s: %w", locationID, err)
	}
	return nil
}
