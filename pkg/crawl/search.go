package crawl

// SearchSelectors locate the site search input, most specific first.
var SearchSelectors = []string{
	`input[placeholder*="ค้นหาข้อมูลหลักสูตร"]`,
	`input[placeholder*="ค้นหา"]`,
	`input[placeholder*="search"]`,
	`input[type="search"]`,
	`input.search-input`,
	`input#search`,
	`input[name="search"]`,
	`input[class*="search"]`,
	`.search-box input`,
	`#search-input`,
	`input`,
}

// SearchButtonSelectors reveal a hidden search input when clicked.
var SearchButtonSelectors = []string{
	`button[class*="search"]`,
	`a[href*="search"]`,
	`.search-btn`,
	`[data-search]`,
}

// SearchButtonText is matched against button and link labels after the selectors fail.
const SearchButtonText = "ค้นหา"

// RevealedSearchSelectors are tried once a search button was clicked.
var RevealedSearchSelectors = []string{
	`input[type="search"]`,
	`input[placeholder*="ค้นหา"]`,
}
