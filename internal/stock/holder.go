package stock

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const mainHolderName = "main"

// Holder is the party physically holding stock: the main warehouse or a driver.
// The zero value is the main warehouse.
type Holder struct {
	driverID uuid.UUID
}

// Main returns the main warehouse holder.
func Main() Holder {
	return Holder{}
}

// Driver returns the holder for one driver.
func Driver(id uuid.UUID) Holder {
	return Holder{driverID: id}
}

func (h Holder) IsMain() bool {
	return h.driverID == uuid.Nil
}

// DriverID returns uuid.Nil for the main warehouse.
func (h Holder) DriverID() uuid.UUID {
	return h.driverID
}

func (h Holder) String() string {
	if h.IsMain() {
		return mainHolderName
	}
	return "driver:" + h.driverID.String()
}

// ParseHolder accepts "main", "driver:<uuid>" or a bare driver uuid.
func ParseHolder(value string) (Holder, error) {
	raw := strings.TrimSpace(strings.ToLower(value))
	if raw == "" || raw == mainHolderName {
		return Main(), nil
	}
	raw = strings.TrimPrefix(raw, "driver:")
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return Holder{}, fmt.Errorf("invalid holder %q", value)
	}
	return Driver(id), nil
}
