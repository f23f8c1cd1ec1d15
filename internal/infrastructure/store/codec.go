package store

import (
	"strconv"
	"time"

	"github.com/LavaJover/storefront-attribution-service/internal/domain"
)

// Capture times are stored as unix milliseconds.

func encodeRecord(keys domain.ChannelKeys, record domain.AttributionRecord) map[string]string {
	fields := map[string]string{
		keys.Code: record.Code,
		keys.Time: strconv.FormatInt(record.CapturedAt.UnixMilli(), 10),
	}
	if keys.ProductID != "" && record.ResolvedProductID != nil {
		fields[keys.ProductID] = *record.ResolvedProductID
	}
	return fields
}

// decodeRecord returns nil when the channel holds no code. A code with a
// missing or unreadable time decodes with a zero CapturedAt, which every
// expiry check treats as expired.
func decodeRecord(keys domain.ChannelKeys, fields map[string]string) *domain.AttributionRecord {
	code := fields[keys.Code]
	if code == "" {
		return nil
	}

	record := &domain.AttributionRecord{Code: code}
	if raw, ok := fields[keys.Time]; ok {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			record.CapturedAt = time.UnixMilli(ms)
		}
	}
	if keys.ProductID != "" {
		if id := fields[keys.ProductID]; id != "" {
			record.ResolvedProductID = &id
		}
	}
	return record
}

// sameCapture reports whether stored is the capture described by want.
// Times compare at the stored millisecond precision.
func sameCapture(stored *domain.AttributionRecord, want domain.AttributionRecord) bool {
	return stored != nil &&
		stored.Code == want.Code &&
		stored.CapturedAt.UnixMilli() == want.CapturedAt.UnixMilli()
}
