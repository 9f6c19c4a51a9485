// Package hdarts provides hierarchical differentiable architecture search: the structure of a
// network is learned by gradient descent, alongside its weights, as a hierarchy of directed acyclic
// graphs whose edges are weighted mixtures of candidate operations.
//
// Building Models
//
// The center of all searching is the Model, initialized by:
//
//		m, err := hd.NewModel(hd.ModelArgs{
//			Config:        cfg,
//			Primitives:    operators.Primitives(),
//			InputChannels: 1,
//			NumClasses:    10,
//			Criterion:     costfuncs.CrossEntropy(),
//			Init:          initializers.He(),
//		})
//
// For brevity, hdarts is abbreviated 'hd'.
//
// Models consist of a stem, a stack of cells and a classifier. Each cell is a LevelGraph of the
// top level: a complete forward DAG whose every edge is a MixtureEdge. The candidates on each
// MixtureEdge are the primitive operations (at level 0) or LevelGraphs of the level below (at every
// other level), so the search space is a DAG of DAGs. All candidates are Operators, and so are
// LevelGraphs.
//
// The weights of the mixtures are the architecture parameters, held in two Alpha structures: one
// shared by all normal cells, and one shared by the reduction cells. They are kept apart from the
// ordinary weights of the Model:
//
//		weights := m.Weights()        // everything but the architecture
//		level0 := m.AlphaLevel(0)     // the architecture of level 0 only
//
// Every parameter appears in exactly one of these sets, so every parameter is updated by exactly
// one ParamGroup.
//
// The Config is checked before anything is built. NumOpsAtLevel[0] must match the number of
// primitives given; if it does not, NewModel returns a ConfigurationError and no Model.
//
// Training
//
// The bi-level loop itself is found in the subpackage "search". Each step updates the architecture
// of every level in ascending order against a validation batch, then the weights against a
// training batch. The pieces it is made from are here:
//
//		loss, logits, err := m.Loss(x, labels)
//		err = hd.Backward(loss)
//		err = group.Step(epoch)
//
// Finalizing
//
// Finalize turns the two Alpha structures into a Report: for every edge of every level, the
// candidate with the largest weight, along with the full weight vector. It has no side effects.
//
// operators, optimizers, hyperparams, initializers, and costfuncs are - of course - subpackages
// of hdarts.
package hdarts
