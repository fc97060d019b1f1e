package model

import "github.com/shopspring/decimal"

// EstimateType is the kind of work an estimate covers.
type EstimateType string

const (
	EstimateTypeStandard EstimateType = "standard"
	EstimateTypeService  EstimateType = "service"
	EstimateTypeOther    EstimateType = "other"
)

// ParseEstimateType maps free text to an EstimateType. Unknown non-empty
// values map to EstimateTypeOther; blank input maps to "".
func ParseEstimateType(s string) EstimateType {
	switch normalizeToken(s) {
	case "":
		return ""
	case "standard":
		return EstimateTypeStandard
	case "service":
		return EstimateTypeService
	default:
		return EstimateTypeOther
	}
}

// EstimateRecord is a single estimate as supplied by the record store.
// The engine never mutates it.
type EstimateRecord struct {
	ExternalID         string              `json:"external_id"`
	AccountID          string              `json:"account_id,omitempty"`
	StatusText         string              `json:"status,omitempty"`
	PipelineStatusText string              `json:"pipeline_status,omitempty"`
	PriceExTax         decimal.NullDecimal `json:"price_ex_tax"`
	PriceIncTax        decimal.NullDecimal `json:"price_inc_tax"`
	EstimateDate       Date                `json:"estimate_date"`
	CloseDate          Date                `json:"close_date"`
	ContractStart      Date                `json:"contract_start"`
	ContractEnd        Date                `json:"contract_end"`
	CreatedDate        Date                `json:"created_date"`
	Division           string              `json:"division,omitempty"`
	Address            string              `json:"address,omitempty"`
	EstimateType       EstimateType        `json:"estimate_type,omitempty"`
	ExcludeFromStats   bool                `json:"exclude_from_stats"`
	Archived           bool                `json:"archived"`
}

// HasContractPeriod reports whether both contract dates carry a value.
func (e EstimateRecord) HasContractPeriod() bool {
	return e.ContractStart.Present() && e.ContractEnd.Present()
}

// Counted reports whether the estimate may contribute to revenue or risk.
func (e EstimateRecord) Counted() bool {
	return !e.ExcludeFromStats && !e.Archived
}
