package pipeline

import "github.com/nerrad567/gray-logic-tilt/internal/calibration"

// FahrenheitToCelsius converts °F to °C, rounded to two decimals.
func FahrenheitToCelsius(f float64) float64 {
	return calibration.Round((f-32)*5/9, 2)
}

// SGToPlato converts specific gravity to degrees Plato, rounded to three decimals.
func SGToPlato(sg float64) float64 {
	plato := -616.868 +
		1111.14*sg -
		630.272*sg*sg +
		135.997*sg*sg*sg
	return calibration.Round(plato, 3)
}
