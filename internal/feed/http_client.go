package feed

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"inpatient-room-catalog/internal/models"
	apperrors "inpatient-room-catalog/pkg/errors"
)

// HTTPConfig holds the feed endpoints.
type HTTPConfig struct {
	CatalogURL      string
	AvailabilityURL string
	RoomsURL        string
	Timeout         time.Duration
	RetryCount      int
}

// HTTPClient reads all three feeds over HTTP(S) JSON.
type HTTPClient struct {
	httpClient *resty.Client
	cfg        HTTPConfig
	validator  *Validator
	logger     *zap.Logger
}

func NewHTTPClient(cfg HTTPConfig, validator *Validator, logger *zap.Logger) *HTTPClient {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Accept", "application/json")

	return &HTTPClient{
		httpClient: client,
		cfg:        cfg,
		validator:  validator,
		logger:     logger,
	}
}

// FetchCatalog implements CatalogSource.
func (c *HTTPClient) FetchCatalog(ctx context.Context) ([]models.CatalogItem, error) {
	var items []models.CatalogItem
	if err := c.get(ctx, Catalog, c.cfg.CatalogURL, &items); err != nil {
		return nil, err
	}
	items = Filter(c.validator, Catalog, items)
	SortCatalog(items)
	return items, nil
}

// FetchAvailability implements AvailabilitySource.
func (c *HTTPClient) FetchAvailability(ctx context.Context) ([]models.AvailabilityRecord, error) {
	var records []models.AvailabilityRecord
	if err := c.get(ctx, Availability, c.cfg.AvailabilityURL, &records); err != nil {
		return nil, err
	}
	return Filter(c.validator, Availability, records), nil
}

// FetchRooms implements RoomSource.
func (c *HTTPClient) FetchRooms(ctx context.Context) ([]models.RoomRecord, error) {
	var rooms []models.RoomRecord
	if err := c.get(ctx, Rooms, c.cfg.RoomsURL, &rooms); err != nil {
		return nil, err
	}
	return Filter(c.validator, Rooms, rooms), nil
}

func (c *HTTPClient) get(ctx context.Context, feed Name, url string, out any) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return apperrors.NewExternalError(string(feed)+" feed request failed", err)
	}

	if resp.StatusCode() != http.StatusOK {
		c.logger.Warn("Feed returned non-OK status",
			zap.String("feed", string(feed)),
			zap.Int("status_code", resp.StatusCode()),
		)
		return apperrors.NewExternalError(string(feed)+" feed returned "+resp.Status(), nil)
	}

	if err := decodeList(resp.Body(), out); err != nil {
		return apperrors.NewExternalError(string(feed)+" feed payload invalid", err)
	}
	return nil
}
