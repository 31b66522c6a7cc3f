// Package autoarima searches non-seasonal ARIMA orders automatically.
//
// The differencing order comes from KPSS (confirmed by ADF) or ADF alone,
// then p and q are chosen by AIC, AICc or BIC with either a stepwise walk
// over neighbouring orders or an exhaustive grid:
//
//	config := autoarima.DefaultConfig()
//	config.Criterion = autoarima.CriterionBIC
//	result, err := autoarima.AutoARIMA(series, config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Order, result.Criterion)
//
// Every fit order is kept in Result.Candidates, best first, so the search
// can be reported next to a manually chosen model.
package autoarima
