package database

const (
	SortName    = "name"
	SortAge     = "age"
	SortCountry = "country"
)

const DefaultSortOrder = SortName

// IsValidSortOrder checks if a string is an allowed profile sort key
func IsValidSortOrder(order string) bool {
	switch order {
	case SortName, SortAge, SortCountry:
		return true
	default:
		return false
	}
}

// NormalizeSortOrder returns order when allowed and the default otherwise.
func NormalizeSortOrder(order string) string {
	if IsValidSortOrder(order) {
		return order
	}
	return DefaultSortOrder
}
