package sentiment

// Weights are centered so that a single plain hit lands well inside the
// hold band and it takes strong or repeated language to cross an action
// threshold.
var defaultWeights = map[string]float64{
	// positive
	"gain":        0.5,
	"gains":       0.5,
	"surge":       0.7,
	"surges":      0.7,
	"soar":        0.8,
	"soars":       0.8,
	"rally":       0.6,
	"rallies":     0.6,
	"bull":        0.6,
	"bullish":     0.7,
	"moon":        0.8,
	"pump":        0.5,
	"breakout":    0.6,
	"adoption":    0.5,
	"approval":    0.5,
	"approved":    0.5,
	"record":      0.4,
	"high":        0.3,
	"rise":        0.4,
	"rises":       0.4,
	"rising":      0.4,
	"up":          0.3,
	"profit":      0.5,
	"profits":     0.5,
	"win":         0.4,
	"wins":        0.4,
	"good":        0.4,
	"great":       0.6,
	"strong":      0.4,
	"growth":      0.4,
	"buy":         0.3,
	"buying":      0.3,
	"accumulate":  0.4,
	"optimistic":  0.6,
	"support":     0.3,
	"recovery":    0.5,
	"recovers":    0.5,
	"etf":         0.3,

	// negative
	"loss":       -0.5,
	"losses":     -0.5,
	"crash":      -0.8,
	"crashes":    -0.8,
	"plunge":     -0.7,
	"plunges":    -0.7,
	"dump":       -0.5,
	"bear":       -0.6,
	"bearish":    -0.7,
	"fear":       -0.5,
	"panic":      -0.7,
	"scam":       -0.8,
	"fraud":      -0.8,
	"hack":       -0.7,
	"hacked":     -0.7,
	"exploit":    -0.6,
	"ban":        -0.6,
	"banned":     -0.6,
	"lawsuit":    -0.5,
	"sec":        -0.2,
	"regulation": -0.3,
	"crackdown":  -0.6,
	"low":        -0.3,
	"down":       -0.3,
	"drop":       -0.4,
	"drops":      -0.4,
	"fall":       -0.4,
	"falls":      -0.4,
	"falling":    -0.4,
	"sell":       -0.3,
	"selling":    -0.3,
	"selloff":    -0.6,
	"bad":        -0.4,
	"weak":       -0.4,
	"risk":       -0.3,
	"bubble":     -0.5,
	"collapse":   -0.8,
	"bankrupt":   -0.8,
	"liquidated": -0.6,
	"gloomy":     -0.6,
}

var defaultNegators = map[string]struct{}{
	"not":     {},
	"no":      {},
	"never":   {},
	"without": {},
	"isnt":    {},
	"wasnt":   {},
	"dont":    {},
	"doesnt":  {},
	"wont":    {},
	"cant":    {},
}

var defaultIntensifiers = map[string]float64{
	"very":      1.3,
	"extremely": 1.5,
	"huge":      1.4,
	"massive":   1.4,
	"major":     1.2,
	"slightly":  0.5,
	"somewhat":  0.7,
	"barely":    0.4,
}
