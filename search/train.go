package search

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	hd "github.com/sharnoff/hdarts"
	"github.com/sharnoff/hdarts/data"
	"github.com/sharnoff/hdarts/metrics"
	"gopkg.in/yaml.v3"
)

// Run runs the search for the configured number of epochs, returning the best validation top-1
// accuracy. Cancellation of ctx is only observed between steps, so that no update is ever left
// half-made; when it is observed, Run returns ctx.Err().
//
// Run does not call Terminate. Whoever runs the search is expected to call it once Run returns,
// whatever the result.
func (s *Searcher) Run(ctx context.Context) (float64, error) {
	if b, err := yaml.Marshal(s.cfg); err == nil {
		s.logger.Info("Starting search", "id", s.id, "config", string(b))
	}

	steps := s.numSteps()
	for epoch := 0; epoch < s.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return s.best.Load(), err
		}

		s.epoch.Store(int64(epoch))

		lr := s.weights.LearningRate(epoch)
		s.writer.AddScalar("train/lr", lr, epoch)

		if err := s.trainEpoch(ctx, epoch, steps); err != nil {
			return s.best.Load(), err
		}

		top1, err := s.validate(epoch, (epoch+1)*steps)
		if err != nil {
			return s.best.Load(), err
		}

		isBest := top1 > s.best.Load()
		if isBest {
			s.best.Store(top1)
		}

		s.logger.Info("Saving checkpoint", "epoch", epoch+1, "best", isBest, "dir", s.ckpt.Root)
		if err := s.ckpt.Save(s.model, epoch, isBest); err != nil {
			return s.best.Load(), errors.Wrapf(err, "Failed to save checkpoint for epoch %d", epoch)
		}
	}

	s.logger.Info("Final best Prec@1", "top1", s.best.Load())
	return s.best.Load(), nil
}

// numSteps returns the number of steps in an epoch: one for each pair of training and validation
// batches
func (s *Searcher) numSteps() int {
	if s.train.Len() < s.valid.Len() {
		return s.train.Len()
	}
	return s.valid.Len()
}

func (s *Searcher) trainEpoch(ctx context.Context, epoch, steps int) error {
	var losses, top1, top5 metrics.AverageMeter

	s.model.Train()
	s.train.Shuffle()
	s.valid.Shuffle()

	curStep := epoch * steps
	for step := 0; step < steps; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		trn, val := s.train.Batch(step), s.valid.Batch(step)

		var res stepResult
		var err error
		if s.order == WeightsThenAlpha {
			if res, err = s.weightsStep(trn, epoch, step); err == nil {
				err = s.alphaUpdates(val, epoch, step)
			}
		} else {
			if err = s.alphaUpdates(val, epoch, step); err == nil {
				res, err = s.weightsStep(trn, epoch, step)
			}
		}

		if err != nil {
			return err
		}

		if res.ok {
			n := trn.Size()
			losses.Update(res.loss, n)
			top1.Update(res.top1, n)
			top5.Update(res.top5, n)

			s.writer.AddScalar("train/loss", res.loss, curStep)
			s.writer.AddScalar("train/top1", res.top1, curStep)
			s.writer.AddScalar("train/top5", res.top5, curStep)
		}

		if step%s.cfg.PrintStepFrequency == 0 || step == steps-1 {
			s.progress("Train", epoch, step, steps, losses, top1, top5)
		}

		curStep++
	}

	s.logger.Info("Train final Prec@1", "epoch", epoch+1, "top1", top1.Avg)
	return nil
}

func (s *Searcher) progress(msg string, epoch, step, steps int, losses, top1, top5 metrics.AverageMeter) {
	s.logger.Info(msg,
		"epoch", fmt.Sprintf("%d/%d", epoch+1, s.cfg.Epochs),
		"step", fmt.Sprintf("%03d/%03d", step, steps-1),
		"loss", losses.Avg,
		"top1", top1.Avg,
		"top5", top5.Avg,
	)
}

type stepResult struct {
	ok               bool
	loss, top1, top5 float64
}

// alphaUpdates updates the architecture of each level in ascending order, each with its own forward
// pass over the validation batch
func (s *Searcher) alphaUpdates(val data.Batch, epoch, step int) error {
	for level, g := range s.alpha {
		g.ZeroGrad()

		loss, _, err := s.model.Loss(val.X, val.Y)
		if err != nil {
			return errors.Wrapf(err, "Forward for alpha level %d failed", level)
		}

		if ok, err := s.update(g, loss, epoch, step, "alpha"); err != nil {
			return err
		} else if !ok {
			continue
		}

		s.alphaSteps.Inc()
		s.notify(Event{AlphaStep, epoch, step, level, loss.Item()})
	}

	return nil
}

func (s *Searcher) weightsStep(trn data.Batch, epoch, step int) (stepResult, error) {
	s.weights.ZeroGrad()

	loss, logits, err := s.model.Loss(trn.X, trn.Y)
	if err != nil {
		return stepResult{}, errors.Wrap(err, "Forward for weights failed")
	}

	ok, err := s.update(s.weights, loss, epoch, step, "train")
	if err != nil || !ok {
		return stepResult{}, err
	}

	s.weightSteps.Inc()
	s.notify(Event{WeightsStep, epoch, step, 0, loss.Item()})

	acc, err := metrics.Accuracy(logits, trn.Y, 1, 5)
	if err != nil {
		return stepResult{}, err
	}

	return stepResult{true, loss.Item(), acc[0], acc[1]}, nil
}

// update propagates the loss back and steps the group. A loss or gradient that is not finite is
// reported and the update skipped; ok is false in that case. Any other failure is returned.
func (s *Searcher) update(g *hd.ParamGroup, loss *hd.Tensor, epoch, step int, prefix string) (ok bool, err error) {
	if !loss.IsFinite() {
		s.skipUpdate(g, prefix, epoch, step, "loss")
		return false, nil
	}

	if err := hd.Backward(loss); err != nil {
		return false, errors.Wrapf(err, "Backward for group %q failed", g.Name())
	}

	if g == s.weights {
		g.ClipGradNorm(s.cfg.WeightsGradientClip)
	}

	if err := g.Step(epoch); err != nil {
		if errors.Cause(err) == hd.ErrNonFinite {
			s.skipUpdate(g, prefix, epoch, step, "gradient")
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// skipUpdate counts an update skipped because its loss or gradient was not finite, and reports it
func (s *Searcher) skipUpdate(g *hd.ParamGroup, prefix string, epoch, step int, what string) {
	n := s.nonFinite.Inc()
	s.reportNonFinite(prefix, g.Name()+" "+what, n, epoch, epoch*s.numSteps()+step)
}

// reportNonFinite logs a value that was not finite, and writes the number of them so far to
// prefix+"/nonfinite"
func (s *Searcher) reportNonFinite(prefix, what string, count int64, epoch, curStep int) {
	s.logger.Warn("Value is not finite", "value", what, "epoch", epoch+1, "step", curStep, "count", count)
	s.writer.AddScalar(prefix+"/nonfinite", float64(count), curStep)
}

func (s *Searcher) notify(e Event) {
	if s.observe != nil {
		s.observe(e)
	}
}

// validate measures the Model on the whole validation set in evaluation mode, returning top-1
// accuracy. Batches with a loss that is not finite are reported, and left out of val/loss.
func (s *Searcher) validate(epoch, curStep int) (float64, error) {
	var losses, top1, top5 metrics.AverageMeter
	var nonFinite int64

	s.model.Eval()
	defer s.model.Train()

	steps := s.valid.Len()
	for step := 0; step < steps; step++ {
		b := s.valid.Batch(step)

		loss, logits, err := s.model.Loss(b.X, b.Y)
		if err != nil {
			return 0, errors.Wrap(err, "Validation forward failed")
		}

		acc, err := metrics.Accuracy(logits, b.Y, 1, 5)
		if err != nil {
			return 0, err
		}

		n := b.Size()
		if loss.IsFinite() {
			losses.Update(loss.Item(), n)
		} else {
			nonFinite++
			s.reportNonFinite("val", fmt.Sprintf("validation loss of batch %d", step), nonFinite, epoch, curStep)
		}
		top1.Update(acc[0], n)
		top5.Update(acc[1], n)

		if step%s.cfg.PrintStepFrequency == 0 || step == steps-1 {
			s.progress("Valid", epoch, step, steps, losses, top1, top5)
		}
	}

	if losses.Count > 0 {
		s.writer.AddScalar("val/loss", losses.Avg, curStep)
	}
	s.writer.AddScalar("val/top1", top1.Avg, curStep)
	s.writer.AddScalar("val/top5", top5.Avg, curStep)

	s.logger.Info("Valid final Prec@1", "epoch", epoch+1, "top1", top1.Avg)
	return top1.Avg, nil
}

// Terminate reads the discrete architecture out of the Model, writes both halves of it as text and
// to the log, and returns it. Only the first call does anything; every later call returns nil.
//
// Terminate is meant to be called once Run has returned, at completion or after cancellation. It
// changes nothing in the Model.
func (s *Searcher) Terminate() *hd.Report {
	if !s.terminated.CompareAndSwap(false, true) {
		return nil
	}

	r := hd.Finalize(s.model.AlphaNormal(), s.model.AlphaReduce())
	step := int(s.epoch.Load())

	s.writer.AddText("alpha/normal", r.NormalText(), step)
	s.writer.AddText("alpha/reduce", r.ReduceText(), step)
	s.logger.Info("Final architecture", "weight_steps", s.weightSteps.Load(), "architecture", r.String())

	return r
}
