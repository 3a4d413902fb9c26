package schema

// Column names as published by RIVM and CBS and as written to the cleaned
// dataset.
const (
	ColDateOfPublication = "Date_of_publication"
	ColDateOfStatistics  = "Date_of_statistics"
	ColMunicipalityCode  = "Municipality_code"
	ColMunicipalityName  = "Municipality_name"
	ColProvince          = "Province"
	ColTotalReported     = "Total_reported"
	ColDeceased          = "Deceased"
	ColHospitalAdmission = "Hospital_admission"

	ColRegion     = "RegioS"
	ColPeriod     = "Perioden"
	ColPopulation = "TotaleBevolking_1"

	ColDate                   = "Date"
	ColMonth                  = "Month"
	ColYear                   = "Year"
	ColPopulationClean        = "Population"
	ColIncidenceHospital      = "Incidence_rate_hospital_admission"
	ColIncidenceCases         = "Incidence_rate_cases"
	ColIncidenceDeaths        = "Incidence_rate_deaths"
	ColIncidenceHospitalShort = "Incidence_rate_hospital"
)

// Metric colours shared by the bar chart and the chart legend.
const (
	ColorCases    = "#1f77b4"
	ColorDeaths   = "#d62728"
	ColorHospital = "#ff7f0e"
)

// RawCases is the RIVM "aantallen gemeente per dag" file.
var RawCases = Config{
	Name:        "cases",
	Description: "RIVM reported cases and deaths per municipality per day",
	Dimensions: []DimensionMeta{
		{Key: ColDateOfPublication, DisplayName: "Date of publication", Required: true, IsTemporal: true, TemporalFormat: "2006-01-02"},
		DefaultDimension(ColMunicipalityCode, "Municipality code"),
		DefaultDimension(ColMunicipalityName, "Municipality"),
		{Key: ColProvince, DisplayName: "Province", Required: true},
	},
	Measures: []MeasureMeta{
		DefaultMeasure(ColTotalReported, "Cases"),
		DefaultMeasure(ColDeceased, "Deaths"),
	},
}

// RawHospital is the RIVM "ziekenhuisopnames" file.
var RawHospital = Config{
	Name:        "hospital",
	Description: "RIVM hospital admissions per municipality per day",
	Dimensions: []DimensionMeta{
		{Key: ColDateOfStatistics, DisplayName: "Date of statistics", Required: true, IsTemporal: true, TemporalFormat: "2006-01-02"},
		DefaultDimension(ColMunicipalityCode, "Municipality code"),
		DefaultDimension(ColMunicipalityName, "Municipality"),
	},
	Measures: []MeasureMeta{
		DefaultMeasure(ColHospitalAdmission, "Hospital admissions"),
	},
}

// RawPopulation is the CBS StatLine population table.
var RawPopulation = Config{
	Name:        "population",
	Description: "CBS population per region per year",
	Dimensions: []DimensionMeta{
		DefaultDimension(ColRegion, "Region"),
		{Key: ColPeriod, DisplayName: "Period", Required: true, IsTemporal: true, TemporalFormat: "2006JJ00"},
	},
	Measures: []MeasureMeta{
		DefaultMeasure(ColPopulation, "Population"),
	},
}

// Cleaned is data_cleaned.csv; Columns() gives the file's column order.
var Cleaned = Config{
	Name:        "cleaned",
	Description: "Cases, deaths and hospital admissions per municipality per day with incidence per 100,000",
	Dimensions: []DimensionMeta{
		{Key: ColDate, DisplayName: "Date", Required: true, IsTemporal: true, TemporalFormat: "2006-01-02"},
		{Key: ColMonth, DisplayName: "Month", Required: true, IsTemporal: true, TemporalFormat: "2006-01", Parent: ColYear},
		{Key: ColYear, DisplayName: "Year", Required: true, IsTemporal: true, TemporalFormat: "2006"},
		DefaultDimension(ColMunicipalityCode, "Municipality code"),
		{Key: ColMunicipalityName, DisplayName: "Municipality", Required: true, Parent: ColProvince},
		DefaultDimension(ColProvince, "Province"),
	},
	Measures: []MeasureMeta{
		{Key: ColPopulationClean, DisplayName: "Population", Unit: "people", Required: true},
		{Key: ColHospitalAdmission, DisplayName: "Hospital Admissions", Unit: "people", Required: true, Color: ColorHospital, DefaultAggregation: "sum"},
		{Key: ColTotalReported, DisplayName: "Cases", Unit: "people", Required: true, Color: ColorCases, DefaultAggregation: "sum"},
		{Key: ColDeceased, DisplayName: "Deaths", Unit: "people", Required: true, Color: ColorDeaths, DefaultAggregation: "sum"},
		{Key: ColIncidenceHospital, DisplayName: "Hospital admissions per 100,000", Unit: "per 100k", Required: true, IsRate: true},
		{Key: ColIncidenceCases, DisplayName: "Cases per 100,000", Unit: "per 100k", Required: true, IsRate: true},
		{Key: ColIncidenceDeaths, DisplayName: "Deaths per 100,000", Unit: "per 100k", Required: true, IsRate: true},
	},
}

// ChartMetrics are the measures selectable in the bar chart, in checkbox order.
func ChartMetrics() []MeasureMeta {
	out := make([]MeasureMeta, 0, 3)
	for _, key := range []string{ColTotalReported, ColDeceased, ColHospitalAdmission} {
		m, _ := Cleaned.Measure(key)
		out = append(out, m)
	}
	return out
}

// MapStatistics are the properties selectable on the map, in dropdown order.
var MapStatistics = []MeasureMeta{
	{Key: ColTotalReported, DisplayName: "Cases", Unit: "people"},
	{Key: ColDeceased, DisplayName: "Deaths", Unit: "people"},
	{Key: ColHospitalAdmission, DisplayName: "Hospital admissions", Unit: "people"},
	{Key: ColIncidenceCases, DisplayName: "Cases per 100,000", Unit: "per 100k", IsRate: true},
	{Key: ColIncidenceDeaths, DisplayName: "Deaths per 100,000", Unit: "per 100k", IsRate: true},
	{Key: ColIncidenceHospitalShort, DisplayName: "Hospital admissions per 100,000", Unit: "per 100k", IsRate: true},
}

// MapStatistic looks up a map statistic by key.
func MapStatistic(key string) (MeasureMeta, bool) {
	for _, m := range MapStatistics {
		if m.Key == key {
			return m, true
		}
	}
	return MeasureMeta{}, false
}
