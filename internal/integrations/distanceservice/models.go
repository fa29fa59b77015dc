package distanceservice

// Distance ответ сервиса расстояний
type Distance struct {
	Postcode string  `json:"postcode"`
	Miles    float64 `json:"distance_miles"`
}
