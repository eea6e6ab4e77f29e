package report

// LedgerFields names the entries of LedgerPayload in order.
var LedgerFields = []string{
	"threshold", "n", "test_mean_cps", "test_tcps", "cv",
	"cps_improvement_pct", "tcps_improvement_pct", "se", "t_statistic", "df",
	"p_value", "cohens_d", "ci_lower", "ci_upper", "significant",
}

// LedgerPayload flattens a scored row into the fixed-order numeric vector
// submitted to an external ledger. Significant is encoded as 0 or 1.
func LedgerPayload(r Row) []float64 {
	sig := 0.0
	if r.Significant {
		sig = 1
	}
	return []float64{
		r.Threshold.Float(),
		float64(r.N),
		r.TestMeanCPS,
		r.TestTCPS,
		r.CV,
		r.CPSImprovementPct,
		r.TCPSImprovementPct,
		r.SE,
		r.TStatistic,
		float64(r.DF),
		r.PValue,
		r.CohensD,
		r.CILower,
		r.CIUpper,
		sig,
	}
}
