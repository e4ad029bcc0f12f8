package domain

// Physical parameters of rider and bike for the constant power model.
type RiderParams struct {
	// Rider, bike and luggage in kg.
	TotalMass float64 `yaml:"total_mass" json:"totalMass" validate:"gt=0"`
	// Sustained output in W.
	RiderPower           float64 `yaml:"rider_power" json:"riderPower" validate:"gte=0"`
	DrivetrainEfficiency float64 `yaml:"drivetrain_efficiency" json:"drivetrainEfficiency" validate:"gt=0,lte=1"`
	// Drag coefficient with the frontal area folded in.
	DragCoefficient   float64 `yaml:"drag_coefficient" json:"dragCoefficient" validate:"gt=0"`
	RollingResistance float64 `yaml:"rolling_resistance" json:"rollingResistance" validate:"gte=0,lt=1"`
}

func DefaultRiderParams() RiderParams {
	return RiderParams{
		TotalMass:            100,
		RiderPower:           150,
		DrivetrainEfficiency: 0.95,
		DragCoefficient:      0.7,
		RollingResistance:    0.005,
	}
}
