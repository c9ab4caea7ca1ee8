package sheets

var (
	QuoteSheetName = quoteSheetName
	ToStrings      = toStrings
)

func (l *Ledger) FullRange() string {
	return l.fullRange()
}
