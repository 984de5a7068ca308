package ingest

import (
	"fmt"

	"listingmap_backend/internal/listings/domain"
	"listingmap_backend/platform/sanitize"
)

// Reference provider columns.
const (
	colRefTitle      = "매물제목"
	colRefFloor      = "층수정보"
	colRefLat        = "위도"
	colRefLng        = "경도"
	colRefDeposit    = "보증금"
	colRefRent       = "월세"
	colRefID         = "매물ID"
	colRefSameCount  = "동일주소매물수"
	colRefArea       = "전용면적(㎡)"
	colRefAreaShort  = "전용면적"
	colRefAddress    = "주소"
	colRefBuilding   = "건물명"
	colRefMaxDeposit = "동일주소_최대보증금"
	colRefMinDeposit = "동일주소_최소보증금"
	colRefMaxRent    = "동일주소_최대월세"
	colRefMinRent    = "동일주소_최소월세"
)

// Short-stay provider columns.
const (
	colRID            = "rid"
	colRoomName       = "room_name"
	colAddrStreet     = "addr_street"
	colAddrLot        = "addr_lot"
	colUsingFee       = "using_fee"
	colOccupancy      = "occupancy_rate_percent"
	colPyeong         = "pyeong_size"
	colRoomCnt        = "room_cnt"
	colBathroomCnt    = "bathroom_cnt"
	colCookroomCnt    = "cookroom_cnt"
	colSittingroomCnt = "sittingroom_cnt"
	colLongterm       = "longterm_discount_per"
	colEarly          = "early_discount_per"
	colLat            = "lat"
	colLng            = "lng"
	colState          = "state"
	colProvince       = "province"
	colTown           = "town"
	colPicMain        = "pic_main"
	colRecoType1      = "reco_type_1"
	colRecoType2      = "reco_type_2"
	colIsNew          = "is_new"
	colIsSuperHost    = "is_super_host"
	colCrawlDatetime  = "crawl_datetime"
	colCrawlTimestamp = "crawl_timestamp"
	colSearchKeyword  = "search_keyword"
)

// Normalizer maps one parsed row into a listing. ok is false when the row
// lacks numeric coordinates and must be dropped.
type Normalizer func(row Row) (listing domain.Listing, ok bool)

// NormalizerFor returns the normalizer for a provider.
func NormalizerFor(source domain.Source) (Normalizer, error) {
	switch source {
	case domain.SourceNaver:
		return NormalizeReference, nil
	case domain.SourceSam, domain.SourceSeoul:
		return ShortStayNormalizer(source), nil
	}
	return nil, fmt.Errorf("no normalizer for source %q", source)
}

// NormalizeReference maps a long-term rental row.
func NormalizeReference(row Row) (domain.Listing, bool) {
	lat, lng, ok := row.Coordinates(colRefLat, colRefLng)
	if !ok || !domain.ValidCoordinates(lat, lng) {
		return domain.Listing{}, false
	}

	area := row.Number(colRefArea)
	if area == nil {
		area = row.Number(colRefAreaShort)
	}

	raw := &domain.ReferenceRow{
		Title:              sanitize.Text(row.Text(colRefTitle)),
		FloorInfo:          sanitize.Text(row.Text(colRefFloor)),
		Lat:                lat,
		Lng:                lng,
		Deposit:            row.Number(colRefDeposit),
		MonthlyRent:        row.Number(colRefRent),
		ListingID:          row.Text(colRefID),
		SameAddressCount:   row.Number(colRefSameCount),
		ExclusiveAreaM2:    area,
		Address:            sanitize.Text(row.Text(colRefAddress)),
		BuildingName:       sanitize.Text(row.Text(colRefBuilding)),
		SameAddressMaxDep:  row.Number(colRefMaxDeposit),
		SameAddressMinDep:  row.Number(colRefMinDeposit),
		SameAddressMaxRent: row.Number(colRefMaxRent),
		SameAddressMinRent: row.Number(colRefMinRent),
	}

	return domain.Listing{
		ID:        raw.ListingID,
		Source:    domain.SourceNaver,
		Title:     orPlaceholder(raw.Title),
		Address:   orPlaceholder(raw.Address),
		Lat:       lat,
		Lng:       lng,
		Deposit:   raw.Deposit,
		Rent:      raw.MonthlyRent,
		Reference: raw,
	}, true
}

// ShortStayNormalizer maps short-stay rows for the given provider.
func ShortStayNormalizer(source domain.Source) Normalizer {
	return func(row Row) (domain.Listing, bool) {
		lat, lng, ok := row.Coordinates(colLat, colLng)
		if !ok || !domain.ValidCoordinates(lat, lng) {
			return domain.Listing{}, false
		}

		raw := &domain.ShortStayRow{
			RID:              row.Text(colRID),
			RoomName:         sanitize.Text(row.Text(colRoomName)),
			AddrStreet:       sanitize.Text(row.Text(colAddrStreet)),
			AddrLot:          sanitize.Text(row.Text(colAddrLot)),
			UsingFee:         row.Number(colUsingFee),
			OccupancyPercent: row.Number(colOccupancy),
			PyeongSize:       row.Number(colPyeong),
			RoomCount:        row.Number(colRoomCnt),
			BathroomCount:    row.Number(colBathroomCnt),
			KitchenCount:     row.Number(colCookroomCnt),
			LivingRoomCount:  row.Number(colSittingroomCnt),
			LongtermDiscount: row.Number(colLongterm),
			EarlyDiscount:    row.Number(colEarly),
			Lat:              lat,
			Lng:              lng,
			State:            sanitize.Text(row.Text(colState)),
			Province:         sanitize.Text(row.Text(colProvince)),
			Town:             sanitize.Text(row.Text(colTown)),
			PicMain:          row.Text(colPicMain),
			RecoType1:        sanitize.Text(row.Text(colRecoType1)),
			RecoType2:        sanitize.Text(row.Text(colRecoType2)),
			IsNew:            row.Bool(colIsNew),
			IsSuperHost:      row.Bool(colIsSuperHost),
			CrawlDatetime:    row.Text(colCrawlDatetime),
			CrawlTimestamp:   row.Number(colCrawlTimestamp),
			SearchKeyword:    sanitize.Text(row.Text(colSearchKeyword)),
		}

		listing := domain.Listing{
			ID:        raw.RID,
			Source:    source,
			Title:     orPlaceholder(raw.RoomName),
			Address:   orPlaceholder(raw.AddrStreet),
			Lat:       lat,
			Lng:       lng,
			Deposit:   raw.UsingFee,
			ShortStay: raw,
		}
		if source == domain.SourceSam {
			listing.Occupancy = raw.OccupancyPercent
		}
		return listing, true
	}
}

func orPlaceholder(s string) string {
	if s == "" {
		return domain.AddressPlaceholder
	}
	return s
}
