package engine

import "context"

// Check reports whether an update is available without promoting a
// new deployment. The current deployment is read-only, so the probe
// runs on the same throwaway
// scratch snapshot refresh uses: refresh package metadata there,
// simulate a dist-upgrade, and report whether anything would change,
// reading the same signal as Update's no-op short-circuit.
func (e *Engine) Check(ctx context.Context) (updateAvailable bool, err error) {
	var available bool

	txErr := e.Lock.WithLock(func() error {
		if err := e.validate(ctx, false); err != nil {
			return err
		}
		return e.withScratchChroot(ctx, func(cmd *ChrootCmd) error {
			if err := cmd.Run(ctx, "refresh package metadata", Step{e.Cfg.PackageTool, "update"}); err != nil {
				return err
			}
			isNoop, _, err := e.updateNoopCheck(ctx, cmd)
			if err != nil {
				return err
			}
			available = !isNoop
			return nil
		})
	})

	return available, txErr
}
