package initializers

type leCun struct {
	*varianceScaling
}

// LeCun returns variance scaling by fan-in with factor 1.
func LeCun() leCun {
	return leCun{VarianceScaling().In()}
}

type he struct {
	*varianceScaling
}

// He returns variance scaling by fan-in with factor 2, for layers followed by ReLU.
func He() he {
	return he{VarianceScaling().In().Factor(2)}
}

type xavier struct {
	*varianceScaling
}

// Xavier returns variance scaling by the average of fan-in and fan-out, with factor 1.
func Xavier() xavier {
	return xavier{VarianceScaling().Avg()}
}

func Glorot() xavier {
	return Xavier()
}
