package opportunity

import "fmt"

func formatTransparencyMessage(sa SignalAnalysis) string {
	return fmt.Sprintf(
		"Found %d total opportunities. %d meet our highest standards (>%.1f), but we're showing all %d to give you full market visibility.",
		sa.ThresholdAnalysis.OpportunitiesShown,
		sa.ThresholdAnalysis.OpportunitiesAboveOriginal,
		sa.ThresholdAnalysis.OriginalThreshold,
		sa.ThresholdAnalysis.OpportunitiesShown,
	)
}
