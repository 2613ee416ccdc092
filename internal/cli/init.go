package cli

type InitCmd struct{}

func (c *InitCmd) Run(ctx *Context) error {
	if err := ctx.Core.Init(ctx.background()); err != nil {
		return err
	}
	ctx.printf("Initialized %s storage at %s\n", ctx.Core.Config.Storage.Provider, ctx.Core.Store.Describe())
	return nil
}
