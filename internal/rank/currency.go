package rank

import "strings"

// currencyByCountry maps country codes from the GDP feed to the currency
// the economy settles in. The mapping is many-to-one: every Eurozone
// member lands on "eur", and alternate encodings of the same economy
// (ISO-2, legacy codes) land on the same currency as their ISO-3 form.
var currencyByCountry = map[string]string{
	// United States
	"USA": "usd", "US": "usd",
	// Eurozone members (consolidated into one EUR economy)
	"AUT": "eur", "BEL": "eur", "HRV": "eur", "CYP": "eur", "EST": "eur",
	"FIN": "eur", "FRA": "eur", "DEU": "eur", "GRC": "eur", "IRL": "eur",
	"ITA": "eur", "LVA": "eur", "LTU": "eur", "LUX": "eur", "MLT": "eur",
	"NLD": "eur", "PRT": "eur", "SVK": "eur", "SVN": "eur", "ESP": "eur",
	"UVK": "eur", "MNE": "eur", // Kosovo and Montenegro use the euro unilaterally
	"DE": "eur", "FR": "eur", "IT": "eur", "ES": "eur",
	// Other majors
	"CHN": "cny", "CN": "cny",
	"JPN": "jpy", "JP": "jpy",
	"GBR": "gbp", "GB": "gbp", "UK": "gbp",
	"IND": "inr", "IN": "inr",
	"CAN": "cad",
	"AUS": "aud",
	"CHE": "chf", "LIE": "chf",
	"KOR": "krw",
	"BRA": "brl",
	"RUS": "rub",
	"MEX": "mxn",
	"IDN": "idr",
	"TUR": "try",
	"SAU": "sar",
	"POL": "pln",
	"SWE": "sek",
	"NOR": "nok",
	"DNK": "dkk",
	"THA": "thb",
	"SGP": "sgd",
	"HKG": "hkd",
	"NZL": "nzd",
	"ZAF": "zar",
	"ARE": "aed",
	"ISR": "ils",
	"CZE": "czk",
	"CHL": "clp",
	"PHL": "php",
	"MYS": "myr",
	"HUN": "huf",
	"TWN": "twd",
	"NGA": "ngn",
	"VNM": "vnd",
	"UKR": "uah",
	"PAK": "pkr",
	"BGD": "bdt",
	"ARG": "ars",
	"COL": "cop",
	"EGY": "egp",
	"PER": "pen",
	"ROU": "ron",
	"KAZ": "kzt",
	"QAT": "qar",
	"KWT": "kwd",
	"MAR": "mad",
	"ECU": "usd", "SLV": "usd", "PAN": "usd", // dollarized economies
}

// currencyNames maps currency codes to display names for ranked rows.
var currencyNames = map[string]string{
	"usd": "US Dollar", "eur": "Euro", "cny": "Chinese Yuan",
	"jpy": "Japanese Yen", "gbp": "British Pound", "inr": "Indian Rupee",
	"cad": "Canadian Dollar", "aud": "Australian Dollar",
	"chf": "Swiss Franc", "krw": "South Korean Won", "brl": "Brazilian Real",
	"rub": "Russian Ruble", "mxn": "Mexican Peso", "idr": "Indonesian Rupiah",
	"try": "Turkish Lira", "sar": "Saudi Riyal", "pln": "Polish Zloty",
	"sek": "Swedish Krona", "nok": "Norwegian Krone", "dkk": "Danish Krone",
	"thb": "Thai Baht", "sgd": "Singapore Dollar", "hkd": "Hong Kong Dollar",
	"nzd": "New Zealand Dollar", "zar": "South African Rand",
	"aed": "UAE Dirham", "ils": "Israeli Shekel", "czk": "Czech Koruna",
	"clp": "Chilean Peso", "php": "Philippine Peso", "myr": "Malaysian Ringgit",
	"huf": "Hungarian Forint", "twd": "New Taiwan Dollar",
	"ngn": "Nigerian Naira", "vnd": "Vietnamese Dong",
	"uah": "Ukrainian Hryvnia", "pkr": "Pakistani Rupee",
	"bdt": "Bangladeshi Taka", "ars": "Argentine Peso",
	"cop": "Colombian Peso", "egp": "Egyptian Pound", "pen": "Peruvian Sol",
	"ron": "Romanian Leu", "kzt": "Kazakhstani Tenge", "qar": "Qatari Riyal",
	"kwd": "Kuwaiti Dinar", "mad": "Moroccan Dirham",
}

// CurrencyFor resolves a GDP-feed country code (case-insensitive) to its
// currency code. Countries without a mapping are not rankable.
func CurrencyFor(countryCode string) (string, bool) {
	cur, ok := currencyByCountry[strings.ToUpper(strings.TrimSpace(countryCode))]
	return cur, ok
}

// CurrencyName returns a display name for a currency code, falling back
// to the upper-cased code.
func CurrencyName(code string) string {
	if name, ok := currencyNames[strings.ToLower(code)]; ok {
		return name
	}
	return strings.ToUpper(code)
}
