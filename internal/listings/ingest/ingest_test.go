package ingest

import (
	"strings"
	"testing"

	"listingmap_backend/internal/listings/domain"
)

const referenceCSV = "\ufeff" + "매물제목,층수정보,위도,경도,보증금,월세,매물ID,동일주소매물수,전용면적(㎡),주소,건물명,동일주소_최대보증금,동일주소_최소보증금,동일주소_최대월세,동일주소_최소월세\n" +
	"역삼 원룸,3/10,37.5,127.0,1000,100,N1,2,33.06,서울 강남구 역삼동,역삼빌,2000,500,120,80\n" +
	"\n" +
	"좌표없음,1/5,,127.1,500,50,N2,1,20,,,,,,\n" +
	"문자좌표,1/5,abc,127.1,500,50,N3,1,20,,,,,,\n" +
	"주소없음,2/5,37.51,127.01,,,N4,,,,,,,,\n"

const samCSV = "rid,room_name,addr_street,addr_lot,using_fee,occupancy_rate_percent,pyeong_size,room_cnt,bathroom_cnt,cookroom_cnt,sittingroom_cnt,longterm_discount_per,early_discount_per,lat,lng\n" +
	"101,<b>강남 스테이</b>,테헤란로 1,역삼동 1,200000,50,10,1,1,1,0,10,5,37.50004,127.00004\n" +
	"101,중복,테헤란로 1,역삼동 1,999999,99,10,1,1,1,0,10,5,37.50004,127.00004\n" +
	"102,점유율없음,,역삼동 2,150000,,8,1,1,1,0,0,0,37.6,127.1\n" +
	"103,좌표없음,,,150000,20,8,1,1,1,0,0,0,,\n"

func TestParseRowsStripsBOMAndSkipsBlankLines(t *testing.T) {
	table, err := ParseRows(strings.NewReader(referenceCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Header[0] != "매물제목" {
		t.Fatalf("expected BOM stripped from first header, got %q", table.Header[0])
	}
	if len(table.Rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(table.Rows))
	}
}

func TestRowNumberIsNumericOnly(t *testing.T) {
	table, err := ParseRows(strings.NewReader("a,b,c,d,e\n1.5,NaN,0x10,,1e3\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row := table.Rows[0]
	if v := row.Number("a"); v == nil || *v != 1.5 {
		t.Fatalf("expected 1.5, got %v", v)
	}
	for _, col := range []string{"b", "c", "d", "missing"} {
		if v := row.Number(col); v != nil {
			t.Fatalf("expected nil for column %q, got %v", col, *v)
		}
	}
	if v := row.Number("e"); v == nil || *v != 1000 {
		t.Fatalf("expected 1000, got %v", v)
	}
}

func TestNormalizeReferenceDropsRowsWithoutCoordinates(t *testing.T) {
	table, _ := ParseRows(strings.NewReader(referenceCSV))
	listings, stats := Normalize(table, NormalizeReference, true)

	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}
	if stats.Dropped != 2 {
		t.Fatalf("expected 2 dropped rows, got %d", stats.Dropped)
	}
	first := listings[0]
	if first.ID != "N1" || first.Source != domain.SourceNaver {
		t.Fatalf("unexpected first listing: %+v", first)
	}
	if first.Rent == nil || *first.Rent != 100 {
		t.Fatalf("expected rent 100, got %v", first.Rent)
	}
	if first.Reference.ExclusiveAreaM2 == nil || *first.Reference.ExclusiveAreaM2 != 33.06 {
		t.Fatalf("expected area 33.06, got %v", first.Reference.ExclusiveAreaM2)
	}
	second := listings[1]
	if second.Address != domain.AddressPlaceholder {
		t.Fatalf("expected placeholder address, got %q", second.Address)
	}
	if second.Deposit != nil || second.Rent != nil {
		t.Fatalf("expected unset deposit and rent, got %v %v", second.Deposit, second.Rent)
	}
}

func TestNormalizeShortStayDedupesAndKeepsUnsetOccupancy(t *testing.T) {
	table, _ := ParseRows(strings.NewReader(samCSV))
	listings, stats := Normalize(table, ShortStayNormalizer(domain.SourceSam), true)

	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}
	if stats.Duplicates != 1 || stats.Dropped != 1 {
		t.Fatalf("expected 1 duplicate and 1 dropped, got %+v", stats)
	}
	if listings[0].Title != "강남 스테이" {
		t.Fatalf("expected sanitized title, got %q", listings[0].Title)
	}
	if listings[0].Deposit == nil || *listings[0].Deposit != 200000 {
		t.Fatalf("expected first fee 200000 (first duplicate kept), got %v", listings[0].Deposit)
	}
	if listings[1].Occupancy != nil {
		t.Fatalf("expected unset occupancy, got %v", *listings[1].Occupancy)
	}
}

func TestNormalizeWithoutDedupeKeepsDuplicates(t *testing.T) {
	table, _ := ParseRows(strings.NewReader(samCSV))
	listings, _ := Normalize(table, ShortStayNormalizer(domain.SourceSam), false)
	if len(listings) != 3 {
		t.Fatalf("expected 3 listings, got %d", len(listings))
	}
}

func TestSeoulListingsIgnoreOccupancy(t *testing.T) {
	table, _ := ParseRows(strings.NewReader(samCSV))
	listings, _ := Normalize(table, ShortStayNormalizer(domain.SourceSeoul), true)
	if listings[0].Occupancy != nil {
		t.Fatalf("expected officetel listing without occupancy")
	}
	if listings[0].ShortStay.OccupancyPercent == nil {
		t.Fatalf("expected raw row to keep the occupancy column")
	}
}

func TestIngestOrdersReferenceFirst(t *testing.T) {
	res, err := Ingest([]byte(referenceCSV), []byte(samCSV), Options{ComparisonSource: domain.SourceSam, Dedupe: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Listings) != 4 {
		t.Fatalf("expected 4 listings, got %d", len(res.Listings))
	}
	if !res.Listings[0].Source.IsReference() || !res.Listings[1].Source.IsReference() {
		t.Fatalf("expected reference listings first")
	}
	if res.Listings[2].Source != domain.SourceSam {
		t.Fatalf("expected comparison listings after reference listings")
	}
}

func TestIngestRejectsReferenceAsComparison(t *testing.T) {
	if _, err := Ingest(nil, nil, Options{ComparisonSource: domain.SourceNaver}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNormalizeDropsOutOfRangeCoordinates(t *testing.T) {
	csv := "rid,room_name,using_fee,lat,lng\n" +
		"201,정상,100000,37.5,127.0\n" +
		"202,위도초과,100000,10000000000000000,127.0\n" +
		"203,경도초과,100000,37.5,181\n"
	table, err := ParseRows(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	listings, stats := Normalize(table, ShortStayNormalizer(domain.SourceSam), false)

	if len(listings) != 1 || listings[0].ID != "201" {
		t.Fatalf("expected only listing 201, got %+v", listings)
	}
	if stats.Dropped != 2 {
		t.Fatalf("expected 2 dropped rows, got %d", stats.Dropped)
	}
}
