package domain

// ReferenceRow is the typed long-term rental row. Amounts are in 만원.
type ReferenceRow struct {
	Title              string   `json:"title"`
	FloorInfo          string   `json:"floorInfo"`
	Lat                float64  `json:"lat"`
	Lng                float64  `json:"lng"`
	Deposit            *float64 `json:"deposit"`
	MonthlyRent        *float64 `json:"monthlyRent"`
	ListingID          string   `json:"listingId"`
	SameAddressCount   *float64 `json:"sameAddressCount"`
	ExclusiveAreaM2    *float64 `json:"exclusiveAreaM2"`
	Address            string   `json:"address"`
	BuildingName       string   `json:"buildingName"`
	SameAddressMaxDep  *float64 `json:"sameAddressMaxDeposit"`
	SameAddressMinDep  *float64 `json:"sameAddressMinDeposit"`
	SameAddressMaxRent *float64 `json:"sameAddressMaxRent"`
	SameAddressMinRent *float64 `json:"sameAddressMinRent"`
}

// ShortStayRow is the typed short-stay row shared by both short-stay providers.
// The premium metadata fields are only populated by the officetel provider.
type ShortStayRow struct {
	RID              string   `json:"rid"`
	RoomName         string   `json:"roomName"`
	AddrStreet       string   `json:"addrStreet"`
	AddrLot          string   `json:"addrLot"`
	UsingFee         *float64 `json:"usingFee"`
	OccupancyPercent *float64 `json:"occupancyRatePercent"`
	PyeongSize       *float64 `json:"pyeongSize"`
	RoomCount        *float64 `json:"roomCnt"`
	BathroomCount    *float64 `json:"bathroomCnt"`
	KitchenCount     *float64 `json:"cookroomCnt"`
	LivingRoomCount  *float64 `json:"sittingroomCnt"`
	LongtermDiscount *float64 `json:"longtermDiscountPer"`
	EarlyDiscount    *float64 `json:"earlyDiscountPer"`
	Lat              float64  `json:"lat"`
	Lng              float64  `json:"lng"`
	State            string   `json:"state,omitempty"`
	Province         string   `json:"province,omitempty"`
	Town             string   `json:"town,omitempty"`
	PicMain          string   `json:"picMain,omitempty"`
	RecoType1        string   `json:"recoType1,omitempty"`
	RecoType2        string   `json:"recoType2,omitempty"`
	IsNew            *bool    `json:"isNew,omitempty"`
	IsSuperHost      *bool    `json:"isSuperHost,omitempty"`
	CrawlDatetime    string   `json:"crawlDatetime,omitempty"`
	CrawlTimestamp   *float64 `json:"crawlTimestamp,omitempty"`
	SearchKeyword    string   `json:"searchKeyword,omitempty"`
}
