package problems

import (
	"encoding/json"
	"os"

	"gonum.org/v1/gonum/mat"

	xerrors "github.com/copyleftdev/XVAL/internal/errors"
)

// Point is one labeled 2-D sample.
type Point struct {
	X1 float64 `json:"x1"`
	X2 float64 `json:"x2"`
	Y  int     `json:"y"` // 0 or 1
}

// Dataset is an immutable set of labeled 2-D points with the derived design
// matrix (bias column of 1s appended) and label vectors.
type Dataset struct {
	Points []Point

	// X is the n x 3 design matrix [x1 x2 1].
	X *mat.Dense
	// Y holds the raw {0,1} labels.
	Y *mat.VecDense
	// YSigned holds the labels recoded to {-1,+1} for margin losses.
	YSigned *mat.VecDense
}

// N returns the number of samples.
func (d *Dataset) N() int {
	return len(d.Points)
}

// LoadDataset reads a JSON dataset file with a "points" collection.
func LoadDataset(path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Wrapf(err, xerrors.KindBadDataset, "reading dataset %s", path).
			WithComponent("problems")
	}

	var doc struct {
		Points []Point `json:"points"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, xerrors.Wrapf(err, xerrors.KindBadDataset, "decoding dataset %s", path).
			WithComponent("problems")
	}
	if len(doc.Points) == 0 {
		return nil, xerrors.Newf(xerrors.KindBadDataset, "dataset %s has no points", path).
			WithComponent("problems")
	}

	n := len(doc.Points)
	x := mat.NewDense(n, 3, nil)
	y := mat.NewVecDense(n, nil)
	ys := mat.NewVecDense(n, nil)
	for i, p := range doc.Points {
		x.SetRow(i, []float64{p.X1, p.X2, 1})
		y.SetVec(i, float64(p.Y))
		ys.SetVec(i, float64(2*p.Y-1))
	}

	return &Dataset{Points: doc.Points, X: x, Y: y, YSigned: ys}, nil
}
