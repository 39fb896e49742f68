package repository

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/AmonBrollo/FlashLingo/internal/domain"
)

// encodeHeader serializes response headers for storage.
func encodeHeader(h http.Header) ([]byte, error) {
	if h == nil {
		h = http.Header{}
	}
	data, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("encode headers: %w", err)
	}
	return data, nil
}

// decodeHeader parses stored response headers.
func decodeHeader(data []byte) (http.Header, error) {
	h := http.Header{}
	if len(data) == 0 {
		return h, nil
	}
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("decode headers: %w", err)
	}
	return h, nil
}

// checkKey rejects keys that cannot identify a request.
func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return domain.ErrInvalidCacheKey
	}
	return nil
}
