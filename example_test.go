package cairn_test

import (
	"context"
	"fmt"

	"github.com/BiAffectBridge/cairn"
	"github.com/BiAffectBridge/cairn/pkg/adapters/memory"
	"github.com/BiAffectBridge/cairn/pkg/domain"
)

// Example walks a two-step assessment from an in-memory loader.
func Example() {
	loader, _ := memory.NewLoader(&domain.Node{
		Identifier: "welcome",
		Kind:       domain.NodeAssessment,
		Children: []*domain.Node{
			{Identifier: "hello", Kind: domain.NodeInstruction},
			{Identifier: "goodbye", Kind: domain.NodeCompletion},
		},
	})
	engine, _ := cairn.New(loader)

	ctx := context.Background()
	ctrl := &hostController{}
	_, err := engine.Start(ctx, "welcome", ctrl)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	for !ctrl.finished {
		fmt.Println(ctrl.current.Node().Identifier)
		if err := ctrl.current.GoForward(ctx, nil); err != nil {
			fmt.Println("error:", err)
			return
		}
	}
	fmt.Println("finished:", ctrl.reason)

	// Output:
	// hello
	// goodbye
	// finished: complete
}
