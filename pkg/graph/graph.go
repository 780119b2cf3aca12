// Package graph builds the token graph from scanned pools and walks it
// for simple paths and cycles (SPEC_FULL.md C4). Grounded on spec.md §4.4:
// insertion-ordered adjacency lists for determinism, depth-limited DFS
// with a no-repeat-token invariant except for closing a cycle.
package graph

import (
	"github.com/ethereum/go-ethereum/common"

	"arbengine/pkg/types"
)

// MaxTokens caps the token universe the graph will hold, per spec.md
// §4.5's complexity guard.
const MaxTokens = 200

// Graph is a directed multigraph over tokens: two edges per PoolLeg, one
// per direction. Adjacency lists preserve insertion order so DFS results
// are reproducible for identical inputs.
type Graph struct {
	order []common.Address
	adj   map[common.Address][]types.Edge
}

// New builds a Graph from a set of scanned pools. Each PoolLeg in each
// Pool contributes two directed edges. Tokens beyond MaxTokens are
// dropped (first-seen tokens win), matching the spec's token-universe cap.
func New(pools []types.Pool) *Graph {
	g := &Graph{adj: make(map[common.Address][]types.Edge)}
	for _, pool := range pools {
		for _, leg := range pool.Legs {
			g.addToken(pool.TokenA)
			g.addToken(pool.TokenB)
			if !g.hasToken(pool.TokenA) || !g.hasToken(pool.TokenB) {
				continue
			}
			g.adj[pool.TokenA] = append(g.adj[pool.TokenA], types.Edge{
				TokenIn: pool.TokenA, TokenOut: pool.TokenB,
				Venue: leg.Venue, Pair: leg.PairAddress,
				ReserveIn: leg.ReserveA, ReserveOut: leg.ReserveB,
			})
			g.adj[pool.TokenB] = append(g.adj[pool.TokenB], types.Edge{
				TokenIn: pool.TokenB, TokenOut: pool.TokenA,
				Venue: leg.Venue, Pair: leg.PairAddress,
				ReserveIn: leg.ReserveB, ReserveOut: leg.ReserveA,
			})
		}
	}
	return g
}

func (g *Graph) hasToken(token common.Address) bool {
	_, ok := g.adj[token]
	return ok
}

func (g *Graph) addToken(token common.Address) {
	if g.hasToken(token) {
		return
	}
	if len(g.order) >= MaxTokens {
		return
	}
	g.order = append(g.order, token)
	g.adj[token] = nil
}

// Tokens returns every token in the graph, in insertion order.
func (g *Graph) Tokens() []common.Address {
	out := make([]common.Address, len(g.order))
	copy(out, g.order)
	return out
}

// OutEdges returns token's outgoing edges in insertion order.
func (g *Graph) OutEdges(token common.Address) []types.Edge {
	return g.adj[token]
}

// Cycles returns every simple cycle starting and ending at start with
// exactly hops edges (hops must be 2 or 3, per spec.md §4.4). No
// intermediate token repeats; the start token is only revisited to close
// the cycle.
func (g *Graph) Cycles(start common.Address, hops int) []types.Path {
	if hops != 2 && hops != 3 {
		return nil
	}
	var out []types.Path
	path := types.Path{Tokens: []common.Address{start}}
	visited := map[common.Address]bool{start: true}

	var dfs func(current common.Address, depth int)
	dfs = func(current common.Address, depth int) {
		if depth == hops {
			if current == start {
				out = append(out, clonePath(path))
			}
			return
		}
		for _, edge := range g.adj[current] {
			if len(g.adj[edge.TokenOut]) == 0 && edge.TokenOut != start {
				continue // prune dead-end tokens with out-degree 0
			}
			closingHop := depth == hops-1
			if edge.TokenOut == start {
				if !closingHop {
					continue // only the last hop may return to start
				}
			} else if visited[edge.TokenOut] {
				continue // no token repeats except the closing start
			}

			path.Tokens = append(path.Tokens, edge.TokenOut)
			path.Edges = append(path.Edges, edge)
			visited[edge.TokenOut] = true

			dfs(edge.TokenOut, depth+1)

			visited[edge.TokenOut] = false
			path.Tokens = path.Tokens[:len(path.Tokens)-1]
			path.Edges = path.Edges[:len(path.Edges)-1]
		}
	}
	dfs(start, 0)
	return out
}

// SimplePaths returns every simple path (no repeated token) starting at
// start with up to maxHops edges and ending anywhere, for reachability
// rather than a closed cycle.
func (g *Graph) SimplePaths(start common.Address, maxHops int) []types.Path {
	var out []types.Path
	path := types.Path{Tokens: []common.Address{start}}
	visited := map[common.Address]bool{start: true}

	var dfs func(current common.Address, depth int)
	dfs = func(current common.Address, depth int) {
		if depth > 0 {
			out = append(out, clonePath(path))
		}
		if depth == maxHops {
			return
		}
		for _, edge := range g.adj[current] {
			if visited[edge.TokenOut] {
				continue
			}
			path.Tokens = append(path.Tokens, edge.TokenOut)
			path.Edges = append(path.Edges, edge)
			visited[edge.TokenOut] = true

			dfs(edge.TokenOut, depth+1)

			visited[edge.TokenOut] = false
			path.Tokens = path.Tokens[:len(path.Tokens)-1]
			path.Edges = path.Edges[:len(path.Edges)-1]
		}
	}
	dfs(start, 0)
	return out
}

func clonePath(p types.Path) types.Path {
	tokens := make([]common.Address, len(p.Tokens))
	copy(tokens, p.Tokens)
	edges := make([]types.Edge, len(p.Edges))
	copy(edges, p.Edges)
	return types.Path{Tokens: tokens, Edges: edges}
}
