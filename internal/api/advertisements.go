package api

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nerrad567/gray-logic-tilt/internal/beacon"
	"github.com/nerrad567/gray-logic-tilt/internal/devices"
)

// maxAdvertisementsPerRequest bounds one POST /advertisements batch.
const maxAdvertisementsPerRequest = 256

// advertisement is one BLE advertisement reported by an external scanner.
// Data is the hex encoded manufacturer data for CompanyID, which defaults
// to Apple.
type advertisement struct {
	MAC       string `json:"mac"`
	RSSI      int    `json:"rssi"`
	CompanyID uint16 `json:"companyId"`
	Data      string `json:"data"`
}

// handleAdvertisements feeds a JSON array of advertisements to the collector.
// The batch is validated as a whole before any advertisement is kept.
// Advertisements that are not Tilt iBeacons are counted as ignored.
func (s *Server) handleAdvertisements(w http.ResponseWriter, r *http.Request) {
	if s.collector == nil {
		writeUnavailable(w, "advertisement ingestion is disabled")
		return
	}

	var ads []advertisement
	if err := json.NewDecoder(r.Body).Decode(&ads); err != nil {
		writeBadRequest(w, "body must be a JSON array of advertisements")
		return
	}
	if len(ads) > maxAdvertisementsPerRequest {
		writeBadRequest(w, fmt.Sprintf("at most %d advertisements per request", maxAdvertisementsPerRequest))
		return
	}

	decoded := make([][]byte, len(ads))
	for i, ad := range ads {
		if ad.MAC == "" {
			writeBadRequest(w, fmt.Sprintf("advertisement %d: mac is required", i))
			return
		}
		mac := devices.NormalizeMAC(ad.MAC)
		if !devices.ValidMAC(mac) {
			writeBadRequest(w, fmt.Sprintf("advertisement %d: mac %q is not a device address", i, ad.MAC))
			return
		}
		ads[i].MAC = mac
		data, err := hex.DecodeString(ad.Data)
		if err != nil {
			writeBadRequest(w, fmt.Sprintf("advertisement %d: data is not hex", i))
			return
		}
		decoded[i] = data
	}

	accepted := 0
	for i, ad := range ads {
		company := ad.CompanyID
		if company == 0 {
			company = beacon.AppleCompanyID
		}
		if s.collector.HandleAdvertisement(ad.MAC, map[uint16][]byte{company: decoded[i]}, ad.RSSI) {
			accepted++
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]int{
		"accepted": accepted,
		"ignored":  len(ads) - accepted,
	})
}
