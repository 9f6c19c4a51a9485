package checkpoint

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	hd "github.com/sharnoff/hdarts"
)

// Checkpointer saves the state of a Model at the end of each epoch under Root. Only the
// architecture is saved unless SaveWeights is set, in which case the weights and the batch
// statistics are saved as well.
type Checkpointer struct {
	Root        string
	SaveWeights bool
}

type weightsJSON struct {
	Weights []*hd.Tensor       `json:"weights"`
	Stats   []*hd.RunningStats `json:"running_stats"`
}

// Save writes the checkpoint of the Model for the epoch.
func (c Checkpointer) Save(m *hd.Model, epoch int, isBest bool) error {
	if m == nil {
		return errors.New("Can't save a nil model")
	}

	if err := Save(m.AlphaNormal(), m.AlphaReduce(), epoch, c.Root, isBest); err != nil {
		return err
	}

	if !c.SaveWeights {
		return nil
	}

	files := map[string]interface{}{weightsFile: weightsJSON{m.Weights(), m.RunningStats()}}
	return save(files, c.Root, epoch, isBest)
}

// Load reads the architecture saved for the epoch (or Best).
func (c Checkpointer) Load(epoch int) (normal, reduce *hd.Alpha, err error) {
	return Load(c.Root, epoch)
}

// HasWeights returns whether weights were saved for the epoch (or Best).
func (c Checkpointer) HasWeights(epoch int) bool {
	_, err := os.Stat(filepath.Join(Dir(c.Root, epoch), weightsFile))
	return err == nil
}

// LoadWeights sets the weights and batch statistics of the Model to those saved for the epoch (or
// Best). The Model must have been built from the same Config as the one that was saved. Nothing is
// changed unless everything matches.
func (c Checkpointer) LoadWeights(m *hd.Model, epoch int) error {
	var wj weightsJSON
	if err := readFile(Dir(c.Root, epoch), weightsFile, &wj); err != nil {
		return err
	}

	ws := m.Weights()
	if len(ws) != len(wj.Weights) {
		return errors.Errorf("Checkpoint has %d weights, model has %d", len(wj.Weights), len(ws))
	}
	for i := range ws {
		if wj.Weights[i] == nil || wj.Weights[i].Size() != ws[i].Size() {
			return errors.Errorf("Weight %d of checkpoint does not match shape %v", i, ws[i].Shape)
		}
	}

	rs := m.RunningStats()
	if len(rs) != len(wj.Stats) {
		return errors.Errorf("Checkpoint has %d sets of batch statistics, model has %d", len(wj.Stats), len(rs))
	}
	for i := range rs {
		s := wj.Stats[i]
		if s == nil || len(s.Mean) != len(rs[i].Mean) || len(s.Var) != len(rs[i].Var) {
			return errors.Errorf("Batch statistics %d of checkpoint do not match %d channels", i, len(rs[i].Mean))
		}
	}

	for i := range ws {
		copy(ws[i].Data, wj.Weights[i].Data)
	}
	for i := range rs {
		copy(rs[i].Mean, wj.Stats[i].Mean)
		copy(rs[i].Var, wj.Stats[i].Var)
	}

	return nil
}
