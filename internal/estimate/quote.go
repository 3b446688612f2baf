package estimate

import (
	"fmt"
	"strings"

	"github.com/toolbelt/plumbing-estimator/internal/features"
)

// Material is one line of the materials list.
type Material struct {
	Name      string  `json:"name"`
	Qty       int     `json:"qty"`
	UnitPrice float64 `json:"unitPrice"`
}

// Total is the line price.
func (m Material) Total() float64 {
	return float64(m.Qty) * m.UnitPrice
}

// Task is one labour item.
type Task struct {
	Title string  `json:"title"`
	Hours float64 `json:"hours"`
}

// Quote breaks an estimate down into materials and labour.
type Quote struct {
	Materials []Material `json:"materials"`
	Tasks     []Task     `json:"tasks"`
}

// MaterialsTotal sums every material line.
func (q *Quote) MaterialsTotal() float64 {
	var total float64
	for _, m := range q.Materials {
		total += m.Total()
	}
	return total
}

// Hours sums the labour hours.
func (q *Quote) Hours() float64 {
	var hours float64
	for _, t := range q.Tasks {
		hours += t.Hours
	}
	return hours
}

// consumables are added once whenever any fixture is quoted.
var consumables = []Material{
	{Name: "PVC Pipes & Fittings", Qty: 1, UnitPrice: 150},
	{Name: "Plumbing Hardware Kit", Qty: 1, UnitPrice: 80},
	{Name: "Sealants & Adhesives", Qty: 1, UnitPrice: 40},
}

// BuildQuote lists the fixtures, labour and consumables implied by a record.
func BuildQuote(record features.Record) (*Quote, error) {
	job, err := features.Decode(record)
	if err != nil {
		return nil, err
	}

	q := &Quote{Materials: []Material{}, Tasks: []Task{}}
	add := func(m Material, t Task) {
		q.Materials = append(q.Materials, m)
		q.Tasks = append(q.Tasks, t)
	}

	if job.Toilet > 0 {
		style := orDefault(job.ToiletType, "One-Piece")
		add(Material{Name: style + " Toilet", Qty: job.Toilet, UnitPrice: toiletPrice(style)},
			Task{Title: fmt.Sprintf("Install %s Toilet", style), Hours: float64(job.Toilet) * 3})
	}
	if job.Washbasin > 0 {
		style := orDefault(job.WashbasinType, "Standard")
		add(Material{Name: style + " Washbasin", Qty: job.Washbasin, UnitPrice: tiered(style, 180, 120)},
			Task{Title: "Install Washbasin", Hours: float64(job.Washbasin) * 2})
	}
	if job.ShowerCabin > 0 {
		style := orDefault(job.ShowerCabinType, "Standard")
		add(Material{Name: style + " Shower Cabin", Qty: job.ShowerCabin, UnitPrice: tiered(style, 800, 450)},
			Task{Title: "Install Shower Cabin", Hours: float64(job.ShowerCabin) * 5})
	}
	if job.Bathtub > 0 {
		style := orDefault(job.BathtubType, "Standard")
		add(Material{Name: style + " Bathtub", Qty: job.Bathtub, UnitPrice: tiered(style, 1200, 600)},
			Task{Title: "Install Bathtub", Hours: float64(job.Bathtub) * 6})
	}
	if job.Bidet > 0 {
		style := orDefault(job.BidetType, "Standard")
		add(Material{Name: style + " Bidet", Qty: job.Bidet, UnitPrice: 200},
			Task{Title: "Install Bidet", Hours: float64(job.Bidet) * 2})
	}
	if job.Radiator > 0 {
		add(Material{Name: orDefault(job.RadiatorType, "Standard Radiator"), Qty: job.Radiator, UnitPrice: 150},
			Task{Title: "Install Radiators", Hours: float64(job.Radiator) * 1.5})
	}
	if job.WaterHeater > 0 {
		style := orDefault(job.WaterHeaterType, "Standard")
		add(Material{Name: style + " Water Heater", Qty: job.WaterHeater, UnitPrice: 400},
			Task{Title: "Install Water Heater", Hours: float64(job.WaterHeater) * 4})
	}
	if size := strings.TrimSpace(job.BoilerSize); size != "" && size != "none" && size != "0" {
		add(Material{Name: capitalize(size) + " Boiler", Qty: 1, UnitPrice: boilerPrice(size)},
			Task{Title: "Install Boiler", Hours: 8})
	}

	if len(q.Materials) > 0 {
		q.Materials = append(q.Materials, consumables...)
	}

	return q, nil
}

func toiletPrice(style string) float64 {
	switch style {
	case "Wall-Hung":
		return 350
	case "One-Piece":
		return 250
	default:
		return 150
	}
}

func boilerPrice(size string) float64 {
	switch size {
	case "big":
		return 1500
	case "medium":
		return 1000
	default:
		return 600
	}
}

// tiered picks the luxury price for styles that advertise it.
func tiered(style string, luxury, standard float64) float64 {
	if strings.Contains(style, "Luxury") {
		return luxury
	}
	return standard
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
