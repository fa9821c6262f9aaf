package tree

// Record is one flat row of the source document after field decoding. Empty
// strings mean the field was absent.
type Record struct {
	Name         string
	AnchorID     string
	Type         string
	Date         any
	Partner      string
	PartnerDates string
	ParentHint1  string
	ParentHint2  string
	ParentID     string
}
