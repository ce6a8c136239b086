package usecase

import (
	"scanner-backend/internal/domain"
	"scanner-backend/internal/infrastructure/indicators"
)

// Evaluation is the outcome of running a strategy over one bar window.
// Signals may be non-empty while Enter is false; an empty signal set always
// means no action.
type Evaluation struct {
	Signals  []domain.Signal
	Enter    bool
	SurgePct float64
	// Snapshot carries the indicator values behind the decision, for the
	// signal log and delivery. Zero with all Has* flags false for the
	// momentum strategy, which does not consult indicators.
	Snapshot  indicators.Snapshot
	LastClose float64
}

// Strategy turns a bar window into signals and an entry decision. Both
// implementations return the same shape so the scanner stays policy-agnostic.
type Strategy interface {
	Name() string
	Evaluate(symbol string, bars []domain.PriceBar) (*Evaluation, error)
}

// ThresholdStrategy is the multi-indicator variant: it emits SURGE,
// RSI_STRONG, MACD_BULLISH and GOLDEN_CROSS signals and enters when the
// surge clears the threshold and at least MinSignals signals are present.
// MinSignals=1 reproduces the looser single-signal behavior as
// configuration rather than a second code path.
type ThresholdStrategy struct {
	SurgeThresholdPct float64
	MinSignals        int
}

func (s *ThresholdStrategy) Name() string { return "threshold" }

func (s *ThresholdStrategy) Evaluate(symbol string, bars []domain.PriceBar) (*Evaluation, error) {
	if len(bars) == 0 {
		return &Evaluation{}, nil
	}

	last := bars[len(bars)-1]
	if last.Open == 0 {
		return nil, &domain.DataQualityError{Symbol: symbol, Reason: "zero open price"}
	}

	surge := (last.Close - last.Open) / last.Open * 100
	snap := indicators.ComputeSnapshot(domain.Closes(bars))

	eval := &Evaluation{
		SurgePct:  surge,
		Snapshot:  snap,
		LastClose: last.Close,
	}

	if surge >= s.SurgeThresholdPct {
		eval.Signals = append(eval.Signals, domain.Signal{Kind: domain.SignalSurge, Evidence: surge})
	}
	// Signals that depend on an unmet lookback are simply not emitted: the
	// instrument is not yet eligible, never failing-open.
	if snap.HasRSI && snap.RSI > 55 {
		eval.Signals = append(eval.Signals, domain.Signal{Kind: domain.SignalRSIStrong, Evidence: snap.RSI})
	}
	if snap.HasMACD && snap.MACD > snap.MACDSignal {
		eval.Signals = append(eval.Signals, domain.Signal{Kind: domain.SignalMACDBullish, Evidence: snap.MACD - snap.MACDSignal})
	}
	if snap.HasTrend && snap.GoldenCross {
		eval.Signals = append(eval.Signals, domain.Signal{Kind: domain.SignalGoldenCross, Evidence: snap.EMAFast - snap.EMASlow})
	}

	minSignals := s.MinSignals
	if minSignals < 1 {
		minSignals = 1
	}
	eval.Enter = surge >= s.SurgeThresholdPct && len(eval.Signals) >= minSignals

	return eval, nil
}

// MomentumStrategy is the sequential-confirmation variant: two consecutive
// up bars with two consecutive volume increases. The strict form also
// requires the latest bar's percent change to clear MinPriceChangePct.
// Indicators are not consulted.
type MomentumStrategy struct {
	MinPriceChangePct float64
	RequireMinChange  bool
}

func (s *MomentumStrategy) Name() string { return "momentum" }

func (s *MomentumStrategy) Evaluate(symbol string, bars []domain.PriceBar) (*Evaluation, error) {
	if len(bars) < 3 {
		return &Evaluation{}, nil
	}

	last := bars[len(bars)-1]
	prev := bars[len(bars)-2]
	beforePrev := bars[len(bars)-3]

	if last.Open == 0 {
		return nil, &domain.DataQualityError{Symbol: symbol, Reason: "zero open price"}
	}
	if prev.Volume == 0 || beforePrev.Volume == 0 {
		return nil, &domain.DataQualityError{Symbol: symbol, Reason: "zero volume in window"}
	}

	changePct := (last.Close - last.Open) / last.Open * 100
	volChange := (last.Volume - prev.Volume) / prev.Volume
	prevVolChange := (prev.Volume - beforePrev.Volume) / beforePrev.Volume

	up := last.Close > last.Open
	prevUp := prev.Close > prev.Open

	eval := &Evaluation{
		SurgePct:  changePct,
		LastClose: last.Close,
	}

	confirmed := up && prevUp && volChange > 0 && prevVolChange > 0
	if confirmed {
		eval.Signals = append(eval.Signals, domain.Signal{Kind: domain.SignalVolumeConfirmedUp, Evidence: volChange * 100})
	}

	eval.Enter = confirmed
	if s.RequireMinChange {
		eval.Enter = eval.Enter && changePct > s.MinPriceChangePct
	}

	return eval, nil
}

// compile-time checks
var (
	_ Strategy = (*ThresholdStrategy)(nil)
	_ Strategy = (*MomentumStrategy)(nil)
)
