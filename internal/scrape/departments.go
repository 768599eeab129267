package scrape

// DefaultDepartments is the full partition set in fixed density order:
// densest urban departments first, overseas last. Re-runs always walk the
// same sequence.
var DefaultDepartments = []string{
	"75", "92", "93", "94", "69", "13", "59", "06", "31", "33",
	"91", "95", "78", "77", "34", "44", "38", "67", "76", "35",
	"83", "62", "57", "54", "74", "42", "45", "49", "30", "63",
	"84", "60", "80", "64", "29", "37", "56", "01", "68", "85",
	"86", "71", "21", "26", "14", "25", "17", "72", "66", "73",
	"27", "51", "22", "40", "50", "02", "16", "24", "87", "47",
	"03", "10", "81", "79", "88", "11", "89", "28", "53", "39",
	"08", "61", "70", "41", "12", "82", "65", "18", "58", "36",
	"19", "07", "52", "43", "55", "32", "46", "04", "15", "09",
	"05", "23", "48", "2A", "2B",
	"971", "972", "973", "974", "976",
}
