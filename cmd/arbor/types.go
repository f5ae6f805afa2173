package main

import "reflect"

// Address is a postal address.
type Address struct {
	Street string `arbor:"required" yaml:"street" json:"street"`
	City   string `arbor:"required" yaml:"city" json:"city"`
	Zip    string `arbor:"copy" yaml:"zip" json:"zip,omitempty"`
}

// Line is one order line.
type Line struct {
	SKU   string  `arbor:"required" yaml:"sku" json:"sku"`
	Qty   int     `arbor:"sum" yaml:"qty" json:"qty"`
	Price float64 `arbor:"sum" yaml:"price" json:"price"`
}

// Order is the main sample type.
type Order struct {
	ID       string   `arbor:"required" yaml:"id" json:"id"`
	Customer string   `arbor:"copy" yaml:"customer" json:"customer"`
	Ship     *Address `yaml:"ship" json:"ship,omitempty"`
	Lines    []Line   `yaml:"lines" json:"lines"`
	Note     string   `yaml:"note" json:"note,omitempty"`
}

// Shipment groups orders sent together. Its orders are independent.
type Shipment struct {
	Carrier string   `arbor:"required" yaml:"carrier" json:"carrier"`
	Orders  []*Order `yaml:"orders" json:"orders"`
}

func (Shipment) UnorderedElements() bool { return true }

var catalog = map[string]reflect.Type{
	"address":  reflect.TypeFor[Address](),
	"line":     reflect.TypeFor[Line](),
	"order":    reflect.TypeFor[Order](),
	"shipment": reflect.TypeFor[Shipment](),
}
