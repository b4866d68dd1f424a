// Package httpclient implements the HTTP operation executor.
//
// [NewExecutor] validates the target, method and headers once. Each call to
// [Executor.Execute] builds a fresh request, sends it through a shared,
// connection-pooling [http.Client] and classifies the result:
//
//	exec, err := httpclient.NewExecutor(cfg.Operation(), httpclient.NewClient(cfg.Timeout, cfg.Concurrency), false)
//	if err != nil {
//		return err
//	}
//	outcome := exec.Execute(ctx)
package httpclient
