package present

import (
	"html/template"
	"strconv"
	"strings"

	"listingmap_backend/internal/listings/domain"
	"listingmap_backend/internal/listings/grouping"
	"listingmap_backend/internal/listings/metrics"
	"listingmap_backend/internal/variants"
)

const (
	colorPositive = template.CSS("#16a34a")
	colorNegative = template.CSS("#dc2626")
)

type sourceStyle struct {
	Label string
	Color template.CSS
}

var sourceStyles = map[domain.Source]sourceStyle{
	domain.SourceNaver: {Label: "네이버", Color: "#15803d"},
	domain.SourceSam:   {Label: "삼삼엠투", Color: "#1d4ed8"},
	domain.SourceSeoul: {Label: "서울 오피스텔", Color: "#1d4ed8"},
}

var groupingLabels = map[grouping.Mode]string{
	grouping.ModeGrid:     "좌표 기반",
	grouping.ModeDistrict: "주소 기반",
}

// Field is one labeled line of a block.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Figure is a derived metric line.
type Figure struct {
	Label string       `json:"label"`
	Value float64      `json:"value"`
	Text  string       `json:"text"`
	Color template.CSS `json:"color,omitempty"`
}

// ComparisonFigures are the derived metrics of one short-stay listing.
// Reference figures are nil when the cell has no reference listings.
type ComparisonFigures struct {
	Revenue       Figure  `json:"revenue"`
	ReferenceRent *Figure `json:"referenceRent,omitempty"`
	ProfitRate    *Figure `json:"profitRate,omitempty"`
	Diff          *Figure `json:"diff,omitempty"`
	Note          string  `json:"note,omitempty"`
}

// Block is the panel section for one listing.
type Block struct {
	ID      string             `json:"id"`
	Source  domain.Source      `json:"source"`
	Label   string             `json:"label"`
	Color   template.CSS       `json:"color"`
	Fields  []Field            `json:"fields"`
	Figures *ComparisonFigures `json:"figures,omitempty"`
}

// Panel is the detail view for one cell.
type Panel struct {
	Key     string          `json:"key"`
	Mode    grouping.Mode   `json:"mode"`
	Header  string          `json:"header,omitempty"`
	Count   int             `json:"count"`
	Summary metrics.Summary `json:"summary"`
	Blocks  []Block         `json:"blocks"`
}

// BuildPanel renders every listing of a cell in cell order.
func BuildPanel(cell grouping.Cell, mode grouping.Mode, v variants.Variant, f *Formatter) Panel {
	refAvg := metrics.ReferenceAverageRent(cell.Listings)
	panel := Panel{
		Key:     cell.Key,
		Mode:    mode,
		Header:  panelHeader(v.Panel.Header, len(cell.Listings), mode),
		Count:   len(cell.Listings),
		Summary: metrics.Summarize(cell.Listings, v),
		Blocks:  make([]Block, 0, len(cell.Listings)),
	}
	for _, l := range cell.Listings {
		style := sourceStyles[l.Source]
		b := Block{ID: l.ID, Source: l.Source, Label: style.Label, Color: style.Color}
		if l.Source.IsReference() {
			b.Fields = referenceFields(l, f)
		} else {
			b.Fields = shortStayFields(l, v, f)
			b.Figures = comparisonFigures(l, refAvg, v, f)
		}
		panel.Blocks = append(panel.Blocks, b)
	}
	return panel
}

func panelHeader(tmpl string, count int, mode grouping.Mode) string {
	if tmpl == "" {
		return ""
	}
	r := strings.NewReplacer("{count}", strconv.Itoa(count), "{grouping}", groupingLabels[mode])
	return r.Replace(tmpl)
}

func referenceFields(l domain.Listing, f *Formatter) []Field {
	row := l.Reference
	if row == nil {
		row = &domain.ReferenceRow{Title: l.Title, Address: l.Address, Deposit: l.Deposit, MonthlyRent: l.Rent}
	}
	return []Field{
		{Label: "매물명", Value: orMissing(row.Title)},
		{Label: "주소", Value: orMissing(row.Address)},
		{Label: "전용면적", Value: f.Unit(metrics.ToPyeong(row.ExclusiveAreaM2), "평") + " / " + f.Unit(row.ExclusiveAreaM2, "㎡")},
		{Label: "보증금", Value: f.Unit(row.Deposit, "만 원")},
		{Label: "월세", Value: f.Unit(row.MonthlyRent, "만 원")},
		{Label: "동일주소 매물수", Value: f.Plain(row.SameAddressCount)},
		{Label: "최대보증금", Value: f.Unit(row.SameAddressMaxDep, "만 원")},
		{Label: "최소보증금", Value: f.Unit(row.SameAddressMinDep, "만 원")},
		{Label: "최대월세", Value: f.Unit(row.SameAddressMaxRent, "만 원")},
		{Label: "최소월세", Value: f.Unit(row.SameAddressMinRent, "만 원")},
	}
}

func shortStayFields(l domain.Listing, v variants.Variant, f *Formatter) []Field {
	row := l.ShortStay
	if row == nil {
		row = &domain.ShortStayRow{RoomName: l.Title, AddrStreet: l.Address, UsingFee: l.Deposit, OccupancyPercent: l.Occupancy}
	}
	fields := []Field{
		{Label: "매물명", Value: orMissing(row.RoomName)},
		{Label: "주소", Value: orMissing(row.AddrStreet)},
		{Label: "평형", Value: f.Unit(row.PyeongSize, "평") + " / " + f.Unit(metrics.ToM2(row.PyeongSize), "㎡")},
		{Label: "1주당 금액", Value: f.Unit(row.UsingFee, "원")},
	}
	if v.Panel.ShowOccupancy {
		fields = append(fields, Field{Label: "예약률", Value: f.Unit(row.OccupancyPercent, "%")})
	}
	rooms := strings.Join([]string{
		f.Plain(row.RoomCount), f.Plain(row.BathroomCount), f.Plain(row.KitchenCount), f.Plain(row.LivingRoomCount),
	}, "/")
	return append(fields,
		Field{Label: "방/욕실/주방/거실", Value: rooms},
		Field{Label: "장기 할인율", Value: f.Plain(row.LongtermDiscount) + "%"},
		Field{Label: "얼리버드 할인율", Value: f.Plain(row.EarlyDiscount) + "%"},
	)
}

func comparisonFigures(l domain.Listing, refAvg *float64, v variants.Variant, f *Formatter) *ComparisonFigures {
	revenue := metrics.Revenue(l, v.Revenue)
	figs := &ComparisonFigures{
		Revenue: Figure{Label: v.Panel.RevenueLabel, Value: revenue, Text: f.Number(revenue) + "원", Color: colorPositive},
	}
	if refAvg == nil {
		figs.Note = v.Panel.NoReferenceNote
		return figs
	}

	figs.ReferenceRent = &Figure{Label: "네이버 평균 월세", Value: *refAvg, Text: f.Number(*refAvg) + "만원"}
	if v.Panel.ShowProfitRate {
		rate := metrics.ProfitRate(revenue, *refAvg)
		figs.ProfitRate = &Figure{Label: "수익률", Value: rate, Text: f.Percent(rate), Color: signColor(rate)}
	}
	diff := metrics.ProfitDiff(revenue, *refAvg)
	figs.Diff = &Figure{Label: v.Panel.DiffLabel, Value: diff, Text: f.Signed(diff, "원"), Color: signColor(diff)}
	return figs
}

func signColor(v float64) template.CSS {
	if v >= 0 {
		return colorPositive
	}
	return colorNegative
}

func orMissing(s string) string {
	if s == "" || s == domain.AddressPlaceholder {
		return Missing
	}
	return s
}
