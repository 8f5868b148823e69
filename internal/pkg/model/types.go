package model

import (
	"errors"
	"strconv"

	"github.com/samber/lo"
)

var ErrUnknownLabel = errors.New("unknown waste label")

type Label string

func (l Label) String() string {
	return string(l)
}

const (
	LabelOrganic   Label = "organic"
	LabelRecycle   Label = "recycle"
	LabelHazardous Label = "hazardous"
	LabelOther     Label = "other"
)

// BinIndex identifies a physical compartment of the sorting bin.
type BinIndex int

const (
	BinOrganic   BinIndex = 0
	BinRecycle   BinIndex = 1
	BinHazardous BinIndex = 2
	BinOther     BinIndex = 3
)

func (i BinIndex) Valid() bool {
	return i >= BinOrganic && i <= BinOther
}

// String renders the index the way it goes over the wire.
func (i BinIndex) String() string {
	return strconv.Itoa(int(i))
}

var binLabels = map[BinIndex]Label{
	BinOrganic:   LabelOrganic,
	BinRecycle:   LabelRecycle,
	BinHazardous: LabelHazardous,
	BinOther:     LabelOther,
}

var binIndexes = lo.Invert(binLabels)

// Labels lists every label ordered by bin index.
var Labels = []Label{LabelOrganic, LabelRecycle, LabelHazardous, LabelOther}

func LabelFor(i BinIndex) (Label, bool) {
	l, ok := binLabels[i]
	return l, ok
}

func IndexFor(l Label) (BinIndex, bool) {
	i, ok := binIndexes[l]
	return i, ok
}
