package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/propmap/internal/database"
	"github.com/stwalsh4118/propmap/internal/models"
)

// PropertyRepository defines the data access operations for tracked properties.
type PropertyRepository interface {
	// ListProperties returns every tracked property ordered by ID.
	// Returns an empty slice if there are none (not an error).
	// Properties without a location are included with nil coordinates.
	ListProperties(ctx context.Context) ([]models.Property, error)
}

// propertyRepository is the PostgreSQL implementation of PropertyRepository.
type propertyRepository struct {
	db *database.Database
}

// NewPropertyRepository creates a new instance of PropertyRepository.
func NewPropertyRepository(db *database.Database) PropertyRepository {
	return &propertyRepository{
		db: db,
	}
}

// propertyRow holds one scanned row before conversion. Income is read as
// text so NUMERIC precision survives the trip into decimal.Decimal.
type propertyRow struct {
	id             int64
	address        string
	postcode       string
	advertiser     *string
	status         *string
	income         string
	totalRooms     int
	availableRooms int
	billsIncluded  bool
	location       models.Point
}

// ListProperties reads the properties table.
//
// Note: ST_AsGeoJSON emits [lng, lat]; models.Point handles the swap.
func (r *propertyRepository) ListProperties(ctx context.Context) ([]models.Property, error) {
	query := `
		SELECT
			id,
			address,
			COALESCE(postcode, ''),
			advertiser_name,
			status,
			COALESCE(monthly_income, 0)::text,
			COALESCE(total_rooms, 0),
			COALESCE(available_rooms, 0),
			COALESCE(bills_included, false),
			ST_AsGeoJSON(location)
		FROM properties
		ORDER BY id
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	defer rows.Close()

	properties := make([]models.Property, 0)
	for rows.Next() {
		var row propertyRow
		err := rows.Scan(
			&row.id,
			&row.address,
			&row.postcode,
			&row.advertiser,
			&row.status,
			&row.income,
			&row.totalRooms,
			&row.availableRooms,
			&row.billsIncluded,
			&row.location,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property row: %w", err)
		}

		p, err := row.toProperty()
		if err != nil {
			return nil, err
		}
		properties = append(properties, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating property rows: %w", err)
	}

	return properties, nil
}

func (row propertyRow) toProperty() (models.Property, error) {
	income, err := decimal.NewFromString(row.income)
	if err != nil {
		return models.Property{}, fmt.Errorf("invalid monthly income for property %d: %w", row.id, err)
	}

	p := models.Property{
		ID:             row.id,
		Address:        row.address,
		Postcode:       row.postcode,
		MonthlyIncome:  income,
		TotalRooms:     row.totalRooms,
		AvailableRooms: row.availableRooms,
		BillsIncluded:  row.billsIncluded,
	}
	if row.advertiser != nil {
		p.AdvertiserName = *row.advertiser
	}
	if row.status != nil {
		p.Status = *row.status
	}
	if row.location.Valid {
		ll := row.location.LatLng()
		p.Latitude = &ll.Lat
		p.Longitude = &ll.Lng
	}
	return p, nil
}
